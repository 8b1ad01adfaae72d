package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	// lockWait bounds how long a reconciliation transaction waits for a row
	// lock. Expiry is retryable: providers redeliver.
	lockWait = 5 * time.Second

	// ackCacheTTL bounds the redis fast-path entries. The settled flag under
	// lock stays authoritative after expiry.
	ackCacheTTL = 24 * time.Hour
)

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

// ReconcileServiceImpl implements ports.ReconcileService. It is the only
// component that moves transactions and payouts to terminal state, always
// under the entity row lock and always composing the balance mutation into
// the same commit. Merchant notifications fire strictly after the commit.
type ReconcileServiceImpl struct {
	txnRepo    ports.TransactionRepository
	payoutRepo ports.PayoutRepository
	eventRepo  ports.WebhookEventRepository
	ledger     ports.LedgerService
	transactor ports.DBTransactor
	cache      ports.EventCache
	notifier   ports.Notifier
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	txnRepo ports.TransactionRepository,
	payoutRepo ports.PayoutRepository,
	eventRepo ports.WebhookEventRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	cache ports.EventCache,
	notifier ports.Notifier,
	audit ports.AuditService,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		txnRepo:    txnRepo,
		payoutRepo: payoutRepo,
		eventRepo:  eventRepo,
		ledger:     ledger,
		transactor: transactor,
		cache:      cache,
		notifier:   notifier,
		audit:      audit,
		log:        log,
	}
}

// ApplyChargeEvent settles a fiat inbound payment from a verified charge
// webhook.
func (s *ReconcileServiceImpl) ApplyChargeEvent(ctx context.Context, event domain.ProviderEvent) (domain.ReconcileStatus, error) {
	if !strings.HasPrefix(event.Reference, domain.FiatReferencePrefix) {
		s.log.Warn().Str("reference", event.Reference).Str("event", event.Event).Msg("charge event with non-fiat reference ignored")
		return domain.ReconcileIgnored, nil
	}

	key := eventKey(event.Provider, event.Kind, event.Reference)
	if status := s.cachedAck(ctx, key); status != "" {
		return status, nil
	}

	s.recordEvent(ctx, event, event.Reference)

	txn, status, err := s.settleTransaction(ctx, event.Reference, event.Outcome, nil, &event)
	if err != nil {
		return "", err
	}
	// An "ignored" ack (e.g. underpayment) is never cached: a later event
	// for the same reference may still settle the transaction.
	if status == domain.ReconcileOK || status == domain.ReconcileAlreadyProcessed {
		s.cacheAck(ctx, key, domain.ReconcileAlreadyProcessed)
	}

	if status == domain.ReconcileOK {
		s.notifyTransaction(ctx, txn)
	}
	return status, nil
}

// ApplyTransferEvent settles an outbound payout from a verified transfer
// webhook. A failed transfer releases the reservation in the same commit.
func (s *ReconcileServiceImpl) ApplyTransferEvent(ctx context.Context, event domain.ProviderEvent) (domain.ReconcileStatus, error) {
	if !strings.HasPrefix(event.Reference, domain.PayoutReferencePrefix) {
		s.log.Warn().Str("reference", event.Reference).Str("event", event.Event).Msg("transfer event with non-payout reference ignored")
		return domain.ReconcileIgnored, nil
	}

	key := eventKey(event.Provider, event.Kind, event.Reference)
	if status := s.cachedAck(ctx, key); status != "" {
		return status, nil
	}

	s.recordEvent(ctx, event, event.Reference)

	tx, err := s.transactor.BeginWithLockTimeout(ctx, lockWait)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("begin transfer reconcile: %w", err))
	}
	defer tx.Rollback(ctx)

	payout, err := s.payoutRepo.GetByReferenceForUpdate(ctx, tx, event.Reference)
	if err != nil {
		if isLockTimeout(err) {
			return "", apperror.ErrLockTimeout(err)
		}
		return "", apperror.InternalError(fmt.Errorf("lock payout: %w", err))
	}
	if payout == nil {
		return "", apperror.ErrNotFound("payout")
	}
	if payout.IsTerminal() {
		s.cacheAck(ctx, key, domain.ReconcileAlreadyProcessed)
		return domain.ReconcileAlreadyProcessed, nil
	}

	now := time.Now().UTC()
	switch event.Outcome {
	case domain.EventOutcomeSuccess:
		if err := s.payoutRepo.UpdateStatus(ctx, tx, payout.ID, domain.PayoutStatusSuccess, now); err != nil {
			return "", apperror.InternalError(fmt.Errorf("mark payout success: %w", err))
		}
		payout.Status = domain.PayoutStatusSuccess
	case domain.EventOutcomeFailed:
		if err := s.payoutRepo.UpdateStatus(ctx, tx, payout.ID, domain.PayoutStatusFailed, now); err != nil {
			return "", apperror.InternalError(fmt.Errorf("mark payout failed: %w", err))
		}
		if err := s.ledger.ReleaseAvailable(ctx, tx, payout.MerchantID, payout.Currency, payout.Amount); err != nil {
			return "", err
		}
		payout.Status = domain.PayoutStatusFailed
	default:
		return domain.ReconcileIgnored, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return "", apperror.InternalError(fmt.Errorf("commit transfer reconcile: %w", err))
	}
	payout.ProcessedAt = &now

	s.cacheAck(ctx, key, domain.ReconcileAlreadyProcessed)
	s.notifyPayout(ctx, payout)

	s.log.Info().
		Str("reference", payout.Reference).
		Str("status", string(payout.Status)).
		Msg("payout reconciled")
	return domain.ReconcileOK, nil
}

// ApplyDepositEvent settles a crypto inbound payment. Deposits carry no
// merchant reference, so the match is by deposit address among PENDING
// crypto transactions; more than one candidate is an unresolvable ambiguity
// and the event is rejected without mutation.
func (s *ReconcileServiceImpl) ApplyDepositEvent(ctx context.Context, event domain.ProviderEvent) (domain.ReconcileStatus, error) {
	if event.DepositAddress == "" {
		return domain.ReconcileIgnored, nil
	}

	key := eventKey(event.Provider, event.Kind, event.TxHash)
	if status := s.cachedAck(ctx, key); status != "" {
		return status, nil
	}

	s.recordEvent(ctx, event, event.TxHash)

	tx, err := s.transactor.BeginWithLockTimeout(ctx, lockWait)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("begin deposit reconcile: %w", err))
	}
	defer tx.Rollback(ctx)

	candidates, err := s.txnRepo.ListPendingByDepositAddressForUpdate(ctx, tx, event.DepositAddress)
	if err != nil {
		if isLockTimeout(err) {
			return "", apperror.ErrLockTimeout(err)
		}
		return "", apperror.InternalError(fmt.Errorf("match deposit: %w", err))
	}

	switch len(candidates) {
	case 0:
		// No pending attempt for this address. Either it was already settled
		// (redelivery) or the deposit is unsolicited; both are acknowledged
		// without mutation.
		s.log.Warn().
			Str("address", event.DepositAddress).
			Str("tx_hash", event.TxHash).
			Msg("deposit event matched no pending transaction")
		return domain.ReconcileIgnored, nil
	case 1:
	default:
		s.audit.Record(ctx, domain.AuditRecord{
			Action:    domain.AuditActionAmbiguousMatch,
			Provider:  string(event.Provider),
			Reference: event.TxHash,
			Detail:    fmt.Sprintf("address %s matched %d pending transactions", event.DepositAddress, len(candidates)),
		})
		return "", apperror.ErrAmbiguousMatch(event.DepositAddress)
	}

	txn := &candidates[0]
	if !txn.CanSettle() {
		s.cacheAck(ctx, key, domain.ReconcileAlreadyProcessed)
		return domain.ReconcileAlreadyProcessed, nil
	}
	if event.Outcome == domain.EventOutcomeSuccess && event.Amount.LessThan(txn.Amount) {
		s.log.Warn().
			Str("reference", txn.Reference).
			Str("expected", txn.Amount.String()).
			Str("received", event.Amount.String()).
			Msg("deposit below expected amount left pending")
		return domain.ReconcileIgnored, nil
	}

	var txHash *string
	if event.TxHash != "" {
		txHash = &event.TxHash
	}
	if err := s.applySettle(ctx, tx, txn, event.Outcome, txHash); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", apperror.InternalError(fmt.Errorf("commit deposit reconcile: %w", err))
	}

	s.cacheAck(ctx, key, domain.ReconcileAlreadyProcessed)
	s.notifyTransaction(ctx, txn)

	s.log.Info().
		Str("reference", txn.Reference).
		Str("status", string(txn.Status)).
		Str("tx_hash", event.TxHash).
		Msg("deposit reconciled")
	return domain.ReconcileOK, nil
}

// ConfirmTransaction is the manual settlement path. It runs through the
// same guarded transition as the webhook paths.
func (s *ReconcileServiceImpl) ConfirmTransaction(ctx context.Context, reference string, outcome domain.EventOutcome) (domain.ReconcileStatus, error) {
	if !strings.HasPrefix(reference, domain.FiatReferencePrefix) && !strings.HasPrefix(reference, domain.CryptoReferencePrefix) {
		return "", apperror.Validation("only payment references can be confirmed")
	}
	if outcome != domain.EventOutcomeSuccess && outcome != domain.EventOutcomeFailed {
		return "", apperror.Validation("outcome must be SUCCESS or FAILED")
	}

	txn, status, err := s.settleTransaction(ctx, reference, outcome, nil, nil)
	if err != nil {
		return "", err
	}

	if status == domain.ReconcileOK {
		s.audit.Record(ctx, domain.AuditRecord{
			MerchantID: &txn.MerchantID,
			Action:     domain.AuditActionManualConfirm,
			Reference:  reference,
			Detail:     string(outcome),
		})
		s.notifyTransaction(ctx, txn)
	}
	return status, nil
}

// settleTransaction applies the guarded terminal transition to a payment
// transaction: legal only while PENDING and unsettled, SUCCESS credits the
// net amount through the ledger inside the same commit. event, when
// non-nil, supplies the provider-reported amount for the underpayment
// check.
func (s *ReconcileServiceImpl) settleTransaction(ctx context.Context, reference string, outcome domain.EventOutcome, txHash *string, event *domain.ProviderEvent) (*domain.Transaction, domain.ReconcileStatus, error) {
	tx, err := s.transactor.BeginWithLockTimeout(ctx, lockWait)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("begin settle: %w", err))
	}
	defer tx.Rollback(ctx)

	txn, err := s.txnRepo.GetByReferenceForUpdate(ctx, tx, reference)
	if err != nil {
		if isLockTimeout(err) {
			return nil, "", apperror.ErrLockTimeout(err)
		}
		return nil, "", apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, "", apperror.ErrNotFound("transaction")
	}
	if !txn.CanSettle() {
		return txn, domain.ReconcileAlreadyProcessed, nil
	}
	if event != nil && outcome == domain.EventOutcomeSuccess && event.Amount.LessThan(txn.Amount) {
		s.log.Warn().
			Str("reference", txn.Reference).
			Str("expected", txn.Amount.String()).
			Str("received", event.Amount.String()).
			Msg("charge below expected amount left pending")
		return txn, domain.ReconcileIgnored, nil
	}

	if err := s.applySettle(ctx, tx, txn, outcome, txHash); err != nil {
		return nil, "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("commit settle: %w", err))
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("status", string(txn.Status)).
		Msg("transaction reconciled")
	return txn, domain.ReconcileOK, nil
}

// applySettle performs the transition inside the caller's locked
// transaction. SUCCESS credits pending and makes the funds available in the
// same unit of work; FAILED has no balance effect. Either way the settled
// flag flips exactly once.
func (s *ReconcileServiceImpl) applySettle(ctx context.Context, tx pgx.Tx, txn *domain.Transaction, outcome domain.EventOutcome, txHash *string) error {
	now := time.Now().UTC()

	var status domain.TransactionStatus
	switch outcome {
	case domain.EventOutcomeSuccess:
		status = domain.TransactionStatusSuccess
	case domain.EventOutcomeFailed:
		status = domain.TransactionStatusFailed
	default:
		return apperror.Validation(fmt.Sprintf("unknown outcome %q", outcome))
	}

	if err := s.txnRepo.Settle(ctx, tx, txn.ID, status, txHash, now); err != nil {
		return apperror.InternalError(fmt.Errorf("settle transaction: %w", err))
	}

	if status == domain.TransactionStatusSuccess {
		if err := s.ledger.CreditPending(ctx, tx, txn.MerchantID, txn.Currency, txn.NetAmount); err != nil {
			return err
		}
		if err := s.ledger.MovePendingToAvailable(ctx, tx, txn.MerchantID, txn.Currency, txn.NetAmount); err != nil {
			return err
		}
	}

	txn.Status = status
	txn.Settled = true
	txn.TxHash = txHash
	txn.SettledAt = &now
	return nil
}

// recordEvent appends the event to the durable webhook log. Duplicates are
// expected on redelivery and are not errors; the settled flag under lock is
// the idempotency guard, the log is evidence.
func (s *ReconcileServiceImpl) recordEvent(ctx context.Context, event domain.ProviderEvent, reference string) {
	inserted, err := s.eventRepo.Insert(ctx, &domain.WebhookEvent{
		Provider:  event.Provider,
		Kind:      event.Kind,
		Reference: reference,
		Payload:   event.Payload,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("failed to record webhook event")
		return
	}
	if !inserted {
		s.log.Debug().Str("reference", reference).Str("kind", string(event.Kind)).Msg("webhook event redelivered")
	}
}

// cachedAck returns the fast-path ack for a redelivered event, or "" when
// the event must take the locked path.
func (s *ReconcileServiceImpl) cachedAck(ctx context.Context, key string) domain.ReconcileStatus {
	status, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("event cache read failed")
		return ""
	}
	return domain.ReconcileStatus(status)
}

func (s *ReconcileServiceImpl) cacheAck(ctx context.Context, key string, status domain.ReconcileStatus) {
	if err := s.cache.Set(ctx, key, string(status), ackCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("event cache write failed")
	}
}

func (s *ReconcileServiceImpl) notifyTransaction(ctx context.Context, txn *domain.Transaction) {
	if err := s.notifier.NotifyTransaction(ctx, txn); err != nil {
		s.log.Warn().Err(err).Str("reference", txn.Reference).Msg("transaction notification failed")
	}
}

func (s *ReconcileServiceImpl) notifyPayout(ctx context.Context, payout *domain.Payout) {
	if err := s.notifier.NotifyPayout(ctx, payout); err != nil {
		s.log.Warn().Err(err).Str("reference", payout.Reference).Msg("payout notification failed")
	}
}

func eventKey(provider domain.Provider, kind domain.EventKind, id string) string {
	return fmt.Sprintf("webhook:%s:%s:%s", provider, kind, id)
}

// isLockTimeout reports whether err is the bounded lock wait expiring.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
