package service

import (
	"context"
	"fmt"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
)

// ReportingServiceImpl implements ports.ReportingService. Pure reads, no
// locking.
type ReportingServiceImpl struct {
	walletRepo ports.WalletRepository
	txnRepo    ports.TransactionRepository
	payoutRepo ports.PayoutRepository
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(
	walletRepo ports.WalletRepository,
	txnRepo ports.TransactionRepository,
	payoutRepo ports.PayoutRepository,
) *ReportingServiceImpl {
	return &ReportingServiceImpl{
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		payoutRepo: payoutRepo,
	}
}

// GetWalletSnapshot returns the merchant's balances across all currencies.
// A merchant that never received a payment has no wallets; that is an empty
// snapshot, not an error.
func (s *ReportingServiceImpl) GetWalletSnapshot(ctx context.Context, merchantID uuid.UUID) ([]ports.WalletBalance, error) {
	wallets, err := s.walletRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}

	snapshot := make([]ports.WalletBalance, 0, len(wallets))
	for _, w := range wallets {
		snapshot = append(snapshot, ports.WalletBalance{
			Currency:  w.Currency,
			Available: w.AvailableBalance,
			Pending:   w.PendingBalance,
		})
	}
	return snapshot, nil
}

// ListTransactions returns a filtered, paginated transaction history.
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	txns, total, err := s.txnRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// ListPayouts returns the merchant's paginated payout history.
func (s *ReportingServiceImpl) ListPayouts(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.Payout, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	payouts, total, err := s.payoutRepo.ListByMerchant(ctx, merchantID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list payouts: %w", err))
	}
	return payouts, total, nil
}
