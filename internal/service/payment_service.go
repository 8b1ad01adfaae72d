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
	"github.com/shopspring/decimal"
)

// Fee rates per rail. The fee is taken off the gross amount at initiation;
// settlement credits the net amount.
var (
	fiatFeeRate   = decimal.NewFromFloat(0.015)
	cryptoFeeRate = decimal.NewFromFloat(0.01)
)

// PaymentServiceImpl implements ports.PaymentService. Initiation never
// settles anything and never touches a wallet; a created transaction stays
// PENDING until the reconciliation engine (or the manual confirm path)
// advances it. The only synchronous transition is marking the row FAILED
// when the provider rejects the initiation itself.
type PaymentServiceImpl struct {
	txnRepo       ports.TransactionRepository
	merchantRepo  ports.MerchantRepository
	fiatGateway   ports.FiatGateway
	cryptoGateway ports.CryptoGateway
	transactor    ports.DBTransactor
	log           zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	txnRepo ports.TransactionRepository,
	merchantRepo ports.MerchantRepository,
	fiatGateway ports.FiatGateway,
	cryptoGateway ports.CryptoGateway,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		txnRepo:       txnRepo,
		merchantRepo:  merchantRepo,
		fiatGateway:   fiatGateway,
		cryptoGateway: cryptoGateway,
		transactor:    transactor,
		log:           log,
	}
}

// InitiateFiatPayment creates a PENDING fiat charge and requests a hosted
// checkout from the processor. The gateway call happens outside any lock.
func (s *PaymentServiceImpl) InitiateFiatPayment(ctx context.Context, req ports.InitiateFiatPaymentRequest) (*domain.Transaction, error) {
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

	txn := newTransaction(merchant, req.Amount, req.Currency, domain.PaymentTypeFiat, domain.ProviderFlutterwave, fiatFeeRate)
	txn.Reference = domain.NewFiatReference()
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	result, err := s.fiatGateway.InitializePayment(ctx, merchant.Environment, ports.InitializePaymentRequest{
		Reference:     txn.Reference,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		RedirectURL:   req.RedirectURL,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		Title:         merchant.BusinessName,
	})
	if err != nil {
		s.failInitiation(ctx, txn)
		return nil, apperror.ErrProviderRejected("Flutterwave", err)
	}

	txn.CheckoutURL = &result.CheckoutURL
	if err := s.txnRepo.UpdateRailDetails(ctx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("store checkout url: %w", err))
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("merchant_id", merchant.ID.String()).
		Str("amount", txn.Amount.String()).
		Str("currency", txn.Currency).
		Msg("fiat payment initiated")
	return txn, nil
}

// InitiateCryptoPayment creates a PENDING crypto deposit and resolves the
// chain deposit address for it. No balance effect until the deposit is
// confirmed on-chain and reconciled.
func (s *PaymentServiceImpl) InitiateCryptoPayment(ctx context.Context, req ports.InitiateCryptoPaymentRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Network == "" {
		return nil, apperror.Validation("network is required")
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

	txn := newTransaction(merchant, req.Amount, req.Currency, domain.PaymentTypeCrypto, domain.ProviderBybit, cryptoFeeRate)
	txn.Reference = domain.NewCryptoReference()
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	addr, err := s.cryptoGateway.GetDepositAddress(ctx, merchant.Environment, req.Currency, req.Network)
	if err != nil {
		s.failInitiation(ctx, txn)
		return nil, apperror.ErrProviderRejected("Bybit", err)
	}

	txn.DepositAddress = &addr.Address
	txn.Network = &addr.Network
	if err := s.txnRepo.UpdateRailDetails(ctx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("store deposit address: %w", err))
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("merchant_id", merchant.ID.String()).
		Str("coin", txn.Currency).
		Str("network", addr.Network).
		Msg("crypto payment initiated")
	return txn, nil
}

func newTransaction(merchant *domain.Merchant, amount decimal.Decimal, currency string, paymentType domain.PaymentType, provider domain.Provider, feeRate decimal.Decimal) *domain.Transaction {
	fee := amount.Mul(feeRate).Round(8)
	return &domain.Transaction{
		ID:          uuid.New(),
		MerchantID:  merchant.ID,
		Amount:      amount,
		Fee:         fee,
		NetAmount:   amount.Sub(fee),
		Currency:    currency,
		PaymentType: paymentType,
		Provider:    provider,
		Environment: merchant.Environment,
		Status:      domain.TransactionStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// failInitiation marks a just-created transaction FAILED after the provider
// rejected the initiation. Done under the row lock because a webhook for
// the same reference could in principle race the rejection.
func (s *PaymentServiceImpl) failInitiation(ctx context.Context, txn *domain.Transaction) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("reference", txn.Reference).Msg("failed to begin failure settle")
		return
	}
	defer tx.Rollback(ctx)

	locked, err := s.txnRepo.GetByReferenceForUpdate(ctx, tx, txn.Reference)
	if err != nil || locked == nil || !locked.CanSettle() {
		return
	}
	if err := s.txnRepo.Settle(ctx, tx, locked.ID, domain.TransactionStatusFailed, nil, time.Now().UTC()); err != nil {
		s.log.Error().Err(err).Str("reference", txn.Reference).Msg("failed to settle rejected initiation")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Error().Err(err).Str("reference", txn.Reference).Msg("failed to commit failure settle")
		return
	}
	txn.Status = domain.TransactionStatusFailed
	txn.Settled = true
}
