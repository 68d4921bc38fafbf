// Package common defines the HTTP response envelope every handler writes
// through, and the single switch that maps a domain error Kind to an HTTP
// status and a stable client-facing error code.
package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
)

// APIResponse is the envelope every handler response is wrapped in.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *APIMeta    `json:"meta,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIMeta carries cursor-pagination detail for list endpoints.
type APIMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
}

// APIError is the error shape of the envelope.
type APIError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Field      string       `json:"field,omitempty"`
	RetryAfter int          `json:"retry_after_seconds,omitempty"`
	Fields     []FieldError `json:"fields,omitempty"`
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Stable client-facing error codes, one per domain error Kind plus the
// handful of adapter-level failures (malformed JSON, missing header) that
// never reach the domain layer.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeCurrencyMismatch  = "CURRENCY_MISMATCH"
	ErrCodeRecipientNotFound = "RECIPIENT_NOT_FOUND"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeHoldNotActive     = "HOLD_NOT_ACTIVE"
	ErrCodeHoldExpired       = "HOLD_EXPIRED"
	ErrCodeIntentExpired     = "INTENT_EXPIRED"
	ErrCodeIntentAlreadyPaid = "INTENT_ALREADY_PAID"
	ErrCodeRefundExceeds     = "REFUND_EXCEEDS_CAPTURE"
	ErrCodeForbiddenScope    = "FORBIDDEN_SCOPE"
	ErrCodeLimitExceeded     = "LIMIT_EXCEEDED"
	ErrCodeIdempotencyConfl  = "IDEMPOTENCY_CONFLICT"
	ErrCodeIdempotencyInFlt  = "IDEMPOTENCY_IN_PROGRESS"
	ErrCodeTransientConflict = "TRANSIENT_CONFLICT"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeArithmeticError   = "ARITHMETIC_ERROR"
	ErrCodeStoreError        = "STORE_ERROR"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// GetRequestID reads the request id the RequestID middleware stashed in
// gin's context.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get("request_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func envelope(c *gin.Context) APIResponse {
	return APIResponse{RequestID: GetRequestID(c), Timestamp: time.Now().UTC()}
}

// Success writes a 2xx response with data in the envelope.
func Success(c *gin.Context, status int, data interface{}) {
	resp := envelope(c)
	resp.Success = true
	resp.Data = data
	c.JSON(status, resp)
}

// SuccessWithMeta writes a 2xx response with data and pagination meta.
func SuccessWithMeta(c *gin.Context, status int, data interface{}, meta *APIMeta) {
	resp := envelope(c)
	resp.Success = true
	resp.Data = data
	resp.Meta = meta
	c.JSON(status, resp)
}

// Error writes an error response with the given status and APIError.
func Error(c *gin.Context, status int, apiErr APIError) {
	resp := envelope(c)
	resp.Success = false
	resp.Error = &apiErr
	c.JSON(status, resp)
}

// BadRequest writes a 400 for a request that never reached the domain
// layer (malformed JSON, missing required header).
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, APIError{Code: ErrCodeBadRequest, Message: message})
}

// ValidationErrors writes a 400 carrying field-level detail, used by the
// request-binding layer.
func ValidationErrors(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, APIError{
		Code:    ErrCodeValidation,
		Message: "request validation failed",
		Fields:  fields,
	})
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, APIError{Code: ErrCodeUnauthorized, Message: message})
}

// kindStatus is the single place a domain error Kind is mapped to an HTTP
// status and a stable error code. Exhaustive over ledgererrors.Kind by
// construction: the default case only ever fires for a Kind added to the
// domain package without a matching case added here.
func kindStatus(kind ledgererrors.Kind) (int, string) {
	switch kind {
	case ledgererrors.KindValidation:
		return http.StatusBadRequest, ErrCodeValidation
	case ledgererrors.KindCurrencyMismatch:
		return http.StatusUnprocessableEntity, ErrCodeCurrencyMismatch
	case ledgererrors.KindRecipientNotFound:
		return http.StatusNotFound, ErrCodeRecipientNotFound
	case ledgererrors.KindInsufficientFunds:
		return http.StatusUnprocessableEntity, ErrCodeInsufficientFunds
	case ledgererrors.KindHoldNotActive:
		return http.StatusConflict, ErrCodeHoldNotActive
	case ledgererrors.KindHoldExpired:
		return http.StatusConflict, ErrCodeHoldExpired
	case ledgererrors.KindIntentExpired:
		return http.StatusConflict, ErrCodeIntentExpired
	case ledgererrors.KindIntentAlreadyPaid:
		return http.StatusConflict, ErrCodeIntentAlreadyPaid
	case ledgererrors.KindRefundExceedsCapture:
		return http.StatusUnprocessableEntity, ErrCodeRefundExceeds
	case ledgererrors.KindForbiddenScope:
		return http.StatusForbidden, ErrCodeForbiddenScope
	case ledgererrors.KindLimitExceeded:
		return http.StatusTooManyRequests, ErrCodeLimitExceeded
	case ledgererrors.KindIdempotencyConflict:
		return http.StatusConflict, ErrCodeIdempotencyConfl
	case ledgererrors.KindIdempotencyInProgress:
		return http.StatusConflict, ErrCodeIdempotencyInFlt
	case ledgererrors.KindTransientConflict:
		return http.StatusServiceUnavailable, ErrCodeTransientConflict
	case ledgererrors.KindTimeout:
		return http.StatusGatewayTimeout, ErrCodeTimeout
	case ledgererrors.KindArithmeticError:
		return http.StatusInternalServerError, ErrCodeArithmeticError
	case ledgererrors.KindStoreError:
		return http.StatusInternalServerError, ErrCodeStoreError
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// HandleDomainError writes the response for any error returned by the
// ledger engine, deriving status and code from its Kind in one switch
// rather than a cascading type-assertion chain.
func HandleDomainError(c *gin.Context, err error) {
	kind := ledgererrors.KindOf(err)
	status, code := kindStatus(kind)

	apiErr := APIError{Code: code, Message: err.Error()}
	if le, ok := asLedgerError(err); ok {
		apiErr.Message = le.Message
		apiErr.Field = le.Field
	}
	if status == http.StatusTooManyRequests {
		apiErr.RetryAfter = 1
	}
	Error(c, status, apiErr)
}

func asLedgerError(err error) (*ledgererrors.LedgerError, bool) {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if le, ok := e.(*ledgererrors.LedgerError); ok {
			return le, true
		}
		u, ok := e.(unwrapper)
		if !ok {
			return nil, false
		}
		e = u.Unwrap()
	}
	return nil, false
}
