package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)

	// Invariant marks internal invariant violations (ledger bugs) that must
	// reach alerting instead of being treated as bad input.
	Invariant bool `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Webhook security (SEC) ----

func ErrInvalidSignature() *AppError {
	return New("SEC_001", "Invalid webhook signature", http.StatusUnauthorized)
}

func ErrUnknownEnvironment(env string) *AppError {
	return New("SEC_002", fmt.Sprintf("Unknown environment %q", env), http.StatusBadRequest)
}

// ---- Payments & payouts (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New("PAY_001", "Insufficient available balance", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("PAY_002", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrProviderRejected(provider string, err error) *AppError {
	return Wrap("PAY_004", fmt.Sprintf("%s rejected the request", provider), http.StatusBadGateway, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("PAY_005", message, http.StatusBadRequest)
}

// ---- Ledger invariants (LED) ----

// ErrInsufficientPendingBalance indicates a reconciliation bug: the pending
// balance would go negative. Never a user error.
func ErrInsufficientPendingBalance() *AppError {
	e := New("LED_001", "Pending balance below settlement amount", http.StatusInternalServerError)
	e.Invariant = true
	return e
}

// ErrAmbiguousMatch indicates more than one pending transaction matched a
// crypto deposit address. Applying the deposit to an arbitrary one would
// corrupt the ledger, so the event is rejected.
func ErrAmbiguousMatch(address string) *AppError {
	e := New("LED_002", fmt.Sprintf("Ambiguous deposit match for address %s", address), http.StatusInternalServerError)
	e.Invariant = true
	return e
}

// ---- Authentication & authorization (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidAccessKey() *AppError {
	return New("AUTH_002", "Invalid access key or secret", http.StatusUnauthorized)
}

func ErrMerchantDisabled() *AppError {
	return New("AUTH_003", "Merchant account is disabled", http.StatusForbidden)
}

func ErrKYCNotApproved() *AppError {
	return New("AUTH_004", "Merchant KYC is not approved", http.StatusForbidden)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrLockTimeout marks a bounded lock wait that expired. Retryable: provider
// webhook redelivery absorbs it.
func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}
