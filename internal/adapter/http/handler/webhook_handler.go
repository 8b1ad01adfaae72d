package handler

import (
	"encoding/json"
	"io"
	"strings"

	"merchant-payment-gateway/internal/adapter/http/dto"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"
	"merchant-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Flutterwave webhook header carrying the shared webhook secret.
const headerVerifHash = "verif-hash"

// WebhookHandler receives provider notifications, authenticates them and
// hands verified events to the reconciliation engine. Signature failures are
// 401 and never reach the engine; unresolvable references are 404; every
// other outcome is a 200 ack so providers stop redelivering.
type WebhookHandler struct {
	txnRepo      ports.TransactionRepository
	payoutRepo   ports.PayoutRepository
	verifier     ports.WebhookVerifier
	reconcileSvc ports.ReconcileService
	audit        ports.AuditService
	log          zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(
	txnRepo ports.TransactionRepository,
	payoutRepo ports.PayoutRepository,
	verifier ports.WebhookVerifier,
	reconcileSvc ports.ReconcileService,
	audit ports.AuditService,
	log zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		txnRepo:      txnRepo,
		payoutRepo:   payoutRepo,
		verifier:     verifier,
		reconcileSvc: reconcileSvc,
		audit:        audit,
		log:          log.With().Str("component", "webhook_handler").Logger(),
	}
}

// HandleFlutterwaveCharge handles POST /webhooks/flutterwave.
// The environment for signature verification comes from the stored
// transaction, never from anything in the unverified payload.
func (h *WebhookHandler) HandleFlutterwaveCharge(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	var payload dto.FlutterwaveWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(c, apperror.Validation("malformed webhook payload"))
		return
	}

	if !strings.HasPrefix(payload.Event, "charge.") {
		response.Ack(c, string(domain.ReconcileIgnored))
		return
	}

	txn, err := h.txnRepo.GetByReference(c.Request.Context(), payload.Data.TxRef)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if txn == nil {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	if err := h.verifier.VerifyFlutterwave(txn.Environment, c.GetHeader(headerVerifHash)); err != nil {
		h.rejectSignature(c, domain.ProviderFlutterwave, payload.Data.TxRef, err)
		return
	}

	event := domain.ProviderEvent{
		Provider:    domain.ProviderFlutterwave,
		Environment: txn.Environment,
		Kind:        domain.EventKindCharge,
		Event:       payload.Event,
		Reference:   payload.Data.TxRef,
		Outcome:     chargeOutcome(payload.Event, payload.Data.Status),
		Amount:      payload.Data.Amount,
		Currency:    payload.Data.Currency,
		Payload:     string(body),
	}

	status, err := h.reconcileSvc.ApplyChargeEvent(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c, string(status))
}

// HandleFlutterwaveTransfer handles POST /webhooks/flutterwave/transfers.
func (h *WebhookHandler) HandleFlutterwaveTransfer(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	var payload dto.FlutterwaveWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(c, apperror.Validation("malformed webhook payload"))
		return
	}

	if payload.Event != "transfer.completed" && payload.Event != "transfer.failed" {
		response.Ack(c, string(domain.ReconcileIgnored))
		return
	}

	payout, err := h.payoutRepo.GetByReference(c.Request.Context(), payload.Data.Reference)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if payout == nil {
		response.Error(c, apperror.ErrNotFound("payout"))
		return
	}

	if err := h.verifier.VerifyFlutterwave(payout.Environment, c.GetHeader(headerVerifHash)); err != nil {
		h.rejectSignature(c, domain.ProviderFlutterwave, payload.Data.Reference, err)
		return
	}

	outcome := domain.EventOutcomeFailed
	if payload.Event == "transfer.completed" || strings.EqualFold(payload.Data.Status, "successful") {
		outcome = domain.EventOutcomeSuccess
	}

	event := domain.ProviderEvent{
		Provider:    domain.ProviderFlutterwave,
		Environment: payout.Environment,
		Kind:        domain.EventKindTransfer,
		Event:       payload.Event,
		Reference:   payload.Data.Reference,
		Outcome:     outcome,
		Amount:      payload.Data.Amount,
		Currency:    payload.Data.Currency,
		Payload:     string(body),
	}

	status, err := h.reconcileSvc.ApplyTransferEvent(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c, string(status))
}

// HandleBybitDeposit handles POST /webhooks/bybit/:environment.
// The environment is fixed by the endpoint path, so verification happens
// before any entity lookup.
func (h *WebhookHandler) HandleBybitDeposit(c *gin.Context) {
	env, err := parseEnvironment(c.Param("environment"))
	if err != nil {
		response.Error(c, err)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	if err := h.verifier.VerifyBybit(env, c.GetHeader("X-BAPI-TIMESTAMP"), c.GetHeader("X-BAPI-SIGN"), body); err != nil {
		h.rejectSignature(c, domain.ProviderBybit, "", err)
		return
	}

	var payload dto.BybitWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(c, apperror.Validation("malformed webhook payload"))
		return
	}

	if payload.Event != "deposit" {
		response.Ack(c, string(domain.ReconcileIgnored))
		return
	}

	outcome := domain.EventOutcomeFailed
	if strings.EqualFold(payload.Data.Status, "success") {
		outcome = domain.EventOutcomeSuccess
	}

	event := domain.ProviderEvent{
		Provider:       domain.ProviderBybit,
		Environment:    env,
		Kind:           domain.EventKindDeposit,
		Event:          payload.Event,
		Outcome:        outcome,
		Amount:         payload.Data.Amount,
		Currency:       payload.Data.Coin,
		DepositAddress: payload.Data.Address,
		TxHash:         payload.Data.TxHash,
		Payload:        string(body),
	}

	status, err := h.reconcileSvc.ApplyDepositEvent(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c, string(status))
}

func (h *WebhookHandler) rejectSignature(c *gin.Context, provider domain.Provider, reference string, err error) {
	h.log.Warn().
		Str("provider", string(provider)).
		Str("reference", reference).
		Str("client_ip", c.ClientIP()).
		Msg("webhook signature rejected")
	if h.audit != nil {
		h.audit.Record(c.Request.Context(), domain.AuditRecord{
			Action:    domain.AuditActionSignatureRejected,
			Provider:  string(provider),
			Reference: reference,
			IPAddress: c.ClientIP(),
		})
	}
	response.Error(c, err)
}

func chargeOutcome(event, status string) domain.EventOutcome {
	if event == "charge.completed" && strings.EqualFold(status, "successful") {
		return domain.EventOutcomeSuccess
	}
	return domain.EventOutcomeFailed
}

func parseEnvironment(raw string) (domain.Environment, error) {
	switch strings.ToUpper(raw) {
	case string(domain.EnvironmentTest):
		return domain.EnvironmentTest, nil
	case string(domain.EnvironmentLive):
		return domain.EnvironmentLive, nil
	default:
		return "", apperror.ErrUnknownEnvironment(raw)
	}
}
