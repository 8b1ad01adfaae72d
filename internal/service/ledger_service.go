package service

import (
	"context"
	"fmt"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService. It is the only
// component allowed to mutate wallet balances. Every primitive runs against
// the caller's transaction and takes the wallet row lock, so callers can
// compose a balance mutation atomically with a state transition. Per the
// global lock order, callers must already hold the entity row lock (if any)
// before invoking a primitive.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(walletRepo ports.WalletRepository, log zerolog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{walletRepo: walletRepo, log: log}
}

// CreditPending adds amount to the pending balance, creating the wallet on
// first credit.
func (s *LedgerServiceImpl) CreditPending(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}

	wallet, err := s.lockOrCreateWallet(ctx, tx, merchantID, currency)
	if err != nil {
		return err
	}

	pending := wallet.PendingBalance.Add(amount)
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, wallet.AvailableBalance, pending); err != nil {
		return apperror.InternalError(fmt.Errorf("credit pending: %w", err))
	}

	s.log.Debug().
		Str("merchant_id", merchantID.String()).
		Str("currency", currency).
		Str("amount", amount.String()).
		Str("pending", pending.String()).
		Msg("ledger: credited pending")
	return nil
}

// MovePendingToAvailable shifts amount from pending to available. A pending
// balance below amount means a reconciliation bug credited and settled out
// of step; it is surfaced as an invariant violation, never clamped.
func (s *LedgerServiceImpl) MovePendingToAvailable(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}

	wallet, err := s.lockWallet(ctx, tx, merchantID, currency)
	if err != nil {
		return err
	}

	if wallet.PendingBalance.LessThan(amount) {
		s.log.Error().
			Str("invariant", "pending_balance").
			Str("merchant_id", merchantID.String()).
			Str("currency", currency).
			Str("pending", wallet.PendingBalance.String()).
			Str("amount", amount.String()).
			Msg("ledger: pending balance below settlement amount")
		return apperror.ErrInsufficientPendingBalance()
	}

	pending := wallet.PendingBalance.Sub(amount)
	available := wallet.AvailableBalance.Add(amount)
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, available, pending); err != nil {
		return apperror.InternalError(fmt.Errorf("move pending to available: %w", err))
	}
	return nil
}

// ReserveAvailable debits amount from the available balance. Insufficient
// funds is an expected, user-facing rejection.
func (s *LedgerServiceImpl) ReserveAvailable(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}

	wallet, err := s.lockWallet(ctx, tx, merchantID, currency)
	if err != nil {
		return err
	}

	if wallet.AvailableBalance.LessThan(amount) {
		return apperror.ErrInsufficientFunds()
	}

	available := wallet.AvailableBalance.Sub(amount)
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, available, wallet.PendingBalance); err != nil {
		return apperror.InternalError(fmt.Errorf("reserve available: %w", err))
	}

	s.log.Debug().
		Str("merchant_id", merchantID.String()).
		Str("currency", currency).
		Str("amount", amount.String()).
		Str("available", available.String()).
		Msg("ledger: reserved available")
	return nil
}

// ReleaseAvailable credits amount back to the available balance, reversing
// an earlier reservation.
func (s *LedgerServiceImpl) ReleaseAvailable(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}

	wallet, err := s.lockWallet(ctx, tx, merchantID, currency)
	if err != nil {
		return err
	}

	available := wallet.AvailableBalance.Add(amount)
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, available, wallet.PendingBalance); err != nil {
		return apperror.InternalError(fmt.Errorf("release available: %w", err))
	}
	return nil
}

// lockWallet acquires the wallet row lock. The wallet must exist.
func (s *LedgerServiceImpl) lockWallet(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByMerchantForUpdate(ctx, tx, merchantID, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// lockOrCreateWallet acquires the wallet row lock, inserting a zero-balance
// wallet first when none exists. The insert happens inside the caller's
// transaction, so the new row is exclusively ours until commit.
func (s *LedgerServiceImpl) lockOrCreateWallet(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByMerchantForUpdate(ctx, tx, merchantID, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(merchantID, currency)
	if err := s.walletRepo.Create(ctx, tx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("merchant_id", merchantID.String()).
		Str("currency", currency).
		Msg("ledger: wallet created on first credit")
	return wallet, nil
}
