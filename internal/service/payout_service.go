package service

import (
	"context"
	"fmt"
	"time"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PayoutServiceImpl implements ports.PayoutService. The reservation and the
// payout row commit in one transaction, so a visible PENDING payout always
// has its funds held. The transfer call to the processor happens after the
// commit, outside any lock; a synchronous rejection reverses the
// reservation through the same atomic pattern the webhook failure path
// uses.
type PayoutServiceImpl struct {
	payoutRepo   ports.PayoutRepository
	merchantRepo ports.MerchantRepository
	ledger       ports.LedgerService
	fiatGateway  ports.FiatGateway
	transactor   ports.DBTransactor
	encryption   ports.EncryptionService
	audit        ports.AuditService
	log          zerolog.Logger

	// callbackURL is where the processor posts transfer webhooks.
	callbackURL string
}

// NewPayoutService creates a new PayoutServiceImpl. baseURL is the public
// base of this gateway, used to build the transfer callback URL.
func NewPayoutService(
	payoutRepo ports.PayoutRepository,
	merchantRepo ports.MerchantRepository,
	ledger ports.LedgerService,
	fiatGateway ports.FiatGateway,
	transactor ports.DBTransactor,
	encryption ports.EncryptionService,
	audit ports.AuditService,
	baseURL string,
	log zerolog.Logger,
) *PayoutServiceImpl {
	return &PayoutServiceImpl{
		payoutRepo:   payoutRepo,
		merchantRepo: merchantRepo,
		ledger:       ledger,
		fiatGateway:  fiatGateway,
		transactor:   transactor,
		encryption:   encryption,
		audit:        audit,
		log:          log,
		callbackURL:  baseURL + "/webhooks/flutterwave/transfers",
	}
}

// RequestPayout reserves funds and creates a PENDING payout atomically,
// then asks the processor to execute the transfer.
func (s *PayoutServiceImpl) RequestPayout(ctx context.Context, req ports.PayoutRequest) (*domain.Payout, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	if !merchant.Enabled {
		return nil, apperror.ErrMerchantDisabled()
	}
	if merchant.KYCStatus != domain.KYCStatusApproved {
		return nil, apperror.ErrKYCNotApproved()
	}
	if merchant.BankCode == "" || merchant.BankAccountNumber == "" {
		return nil, apperror.Validation("merchant bank details are not configured")
	}

	accountNumber, err := s.encryption.Decrypt(merchant.BankAccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decrypt bank account: %w", err))
	}

	payout := &domain.Payout{
		ID:          uuid.New(),
		Reference:   domain.NewPayoutReference(),
		MerchantID:  merchant.ID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      domain.PayoutStatusPending,
		Environment: merchant.Environment,
		Bank: domain.BankSnapshot{
			BankCode:            merchant.BankCode,
			AccountNumberEnc:    merchant.BankAccountNumber,
			AccountNumberMasked: maskAccountNumber(accountNumber),
			AccountName:         merchant.BankAccountName,
		},
		CreatedAt: time.Now().UTC(),
	}

	// Reservation and payout row in one commit.
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin payout: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := s.ledger.ReserveAvailable(ctx, tx, merchant.ID, req.Currency, req.Amount); err != nil {
		return nil, err
	}
	if err := s.payoutRepo.Create(ctx, tx, payout); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create payout: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit payout: %w", err))
	}

	s.audit.Record(ctx, domain.AuditRecord{
		MerchantID: &merchant.ID,
		Action:     domain.AuditActionPayoutRequested,
		Reference:  payout.Reference,
		Detail:     fmt.Sprintf("%s %s to %s", req.Amount.String(), req.Currency, payout.Bank.AccountNumberMasked),
		IPAddress:  req.ClientIP,
	})

	err = s.fiatGateway.InitiateTransfer(ctx, merchant.Environment, ports.InitiateTransferRequest{
		Reference:     payout.Reference,
		Amount:        payout.Amount,
		Currency:      payout.Currency,
		BankCode:      payout.Bank.BankCode,
		AccountNumber: accountNumber,
		AccountName:   payout.Bank.AccountName,
		Narration:     fmt.Sprintf("Payout %s", payout.Reference),
		CallbackURL:   s.callbackURL,
	})
	if err != nil {
		if failErr := s.failPayout(ctx, payout); failErr != nil {
			s.log.Error().Err(failErr).Str("reference", payout.Reference).Msg("failed to reverse rejected payout")
		}
		return nil, apperror.ErrProviderRejected("Flutterwave", err)
	}

	s.log.Info().
		Str("reference", payout.Reference).
		Str("merchant_id", merchant.ID.String()).
		Str("amount", payout.Amount.String()).
		Str("currency", payout.Currency).
		Msg("payout requested")
	return payout, nil
}

// failPayout marks the payout FAILED and releases the reservation in one
// transaction. Guarded by the payout row lock: if a transfer webhook
// already settled it, this is a no-op.
func (s *PayoutServiceImpl) failPayout(ctx context.Context, payout *domain.Payout) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin payout failure: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.payoutRepo.GetByReferenceForUpdate(ctx, tx, payout.Reference)
	if err != nil {
		return fmt.Errorf("lock payout: %w", err)
	}
	if locked == nil || locked.IsTerminal() {
		return nil
	}

	now := time.Now().UTC()
	if err := s.payoutRepo.UpdateStatus(ctx, tx, locked.ID, domain.PayoutStatusFailed, now); err != nil {
		return fmt.Errorf("mark payout failed: %w", err)
	}
	if err := s.ledger.ReleaseAvailable(ctx, tx, locked.MerchantID, locked.Currency, locked.Amount); err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payout failure: %w", err)
	}

	payout.Status = domain.PayoutStatusFailed
	payout.ProcessedAt = &now
	return nil
}

// maskAccountNumber keeps only the last four digits visible.
func maskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	masked := make([]byte, len(accountNumber)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + accountNumber[len(accountNumber)-4:]
}
