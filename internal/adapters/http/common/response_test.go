package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	c.Set("request_id", "req-abc")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	c, w := testContext()

	Success(c, http.StatusOK, gin.H{"balance": "100.00"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "req-abc", resp.RequestID)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestSuccessWithMeta(t *testing.T) {
	c, w := testContext()

	SuccessWithMeta(c, http.StatusOK, []string{"a", "b"}, &APIMeta{NextCursor: "cursor-2"})

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, "cursor-2", resp.Meta.NextCursor)
}

func TestError(t *testing.T) {
	c, w := testContext()

	Error(c, http.StatusBadRequest, APIError{Code: ErrCodeBadRequest, Message: "bad input"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "bad input", resp.Error.Message)
}

func TestBadRequest(t *testing.T) {
	c, w := testContext()

	BadRequest(c, "malformed json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
}

func TestValidationErrors(t *testing.T) {
	c, w := testContext()

	ValidationErrors(c, []FieldError{{Field: "amount", Message: "required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "amount", resp.Error.Fields[0].Field)
}

func TestUnauthorized(t *testing.T) {
	c, w := testContext()

	Unauthorized(c, "missing token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, ErrCodeUnauthorized, resp.Error.Code)
}

func TestHandleDomainError_MapsKindToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", ledgererrors.New(ledgererrors.KindValidation, "bad amount"), http.StatusBadRequest, ErrCodeValidation},
		{"currency mismatch", ledgererrors.New(ledgererrors.KindCurrencyMismatch, "currency mismatch"), http.StatusUnprocessableEntity, ErrCodeCurrencyMismatch},
		{"recipient not found", ledgererrors.New(ledgererrors.KindRecipientNotFound, "no such wallet"), http.StatusNotFound, ErrCodeRecipientNotFound},
		{"insufficient funds", ledgererrors.New(ledgererrors.KindInsufficientFunds, "not enough balance"), http.StatusUnprocessableEntity, ErrCodeInsufficientFunds},
		{"hold not active", ledgererrors.New(ledgererrors.KindHoldNotActive, "hold released"), http.StatusConflict, ErrCodeHoldNotActive},
		{"hold expired", ledgererrors.New(ledgererrors.KindHoldExpired, "hold expired"), http.StatusConflict, ErrCodeHoldExpired},
		{"intent expired", ledgererrors.New(ledgererrors.KindIntentExpired, "intent expired"), http.StatusConflict, ErrCodeIntentExpired},
		{"intent already paid", ledgererrors.New(ledgererrors.KindIntentAlreadyPaid, "already paid"), http.StatusConflict, ErrCodeIntentAlreadyPaid},
		{"refund exceeds capture", ledgererrors.New(ledgererrors.KindRefundExceedsCapture, "refund too large"), http.StatusUnprocessableEntity, ErrCodeRefundExceeds},
		{"forbidden scope", ledgererrors.New(ledgererrors.KindForbiddenScope, "missing scope"), http.StatusForbidden, ErrCodeForbiddenScope},
		{"limit exceeded", ledgererrors.New(ledgererrors.KindLimitExceeded, "over ceiling"), http.StatusTooManyRequests, ErrCodeLimitExceeded},
		{"idempotency conflict", ledgererrors.New(ledgererrors.KindIdempotencyConflict, "key reused"), http.StatusConflict, ErrCodeIdempotencyConfl},
		{"idempotency in progress", ledgererrors.New(ledgererrors.KindIdempotencyInProgress, "still in flight"), http.StatusConflict, ErrCodeIdempotencyInFlt},
		{"transient conflict", ledgererrors.New(ledgererrors.KindTransientConflict, "deadlock"), http.StatusServiceUnavailable, ErrCodeTransientConflict},
		{"timeout", ledgererrors.New(ledgererrors.KindTimeout, "deadline exceeded"), http.StatusGatewayTimeout, ErrCodeTimeout},
		{"arithmetic error", ledgererrors.New(ledgererrors.KindArithmeticError, "overflow"), http.StatusInternalServerError, ErrCodeArithmeticError},
		{"store error", ledgererrors.New(ledgererrors.KindStoreError, "db down"), http.StatusInternalServerError, ErrCodeStoreError},
		{"unclassified error", errors.New("boom"), http.StatusInternalServerError, ErrCodeStoreError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext()

			HandleDomainError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleDomainError_PreservesFieldAndMessage(t *testing.T) {
	c, w := testContext()

	err := &ledgererrors.LedgerError{
		Kind:    ledgererrors.KindValidation,
		Message: "amount must be positive",
		Field:   "amount",
	}
	HandleDomainError(c, err)

	resp := decodeResponse(t, w)
	assert.Equal(t, "amount must be positive", resp.Error.Message)
	assert.Equal(t, "amount", resp.Error.Field)
}

func TestHandleDomainError_WrappedLedgerError(t *testing.T) {
	c, w := testContext()

	cause := ledgererrors.Wrap(ledgererrors.KindStoreError, "query failed", errors.New("connection reset"))
	wrapped := errors.Join(errors.New("outer context"), cause)

	HandleDomainError(c, wrapped)

	resp := decodeResponse(t, w)
	assert.Equal(t, ErrCodeStoreError, resp.Error.Code)
}

func TestHandleDomainError_RateLimitSetsRetryAfter(t *testing.T) {
	c, w := testContext()

	HandleDomainError(c, ledgererrors.New(ledgererrors.KindLimitExceeded, "over ceiling"))

	resp := decodeResponse(t, w)
	assert.Equal(t, 1, resp.Error.RetryAfter)
}

func TestGetRequestID_NotSet(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	assert.Equal(t, "", GetRequestID(c))
}

func TestGetRequestID_WrongType(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", 12345)

	assert.Equal(t, "", GetRequestID(c))
}
