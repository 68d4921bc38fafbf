package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallethub/ledger/internal/adapters/http/middleware"
	"github.com/wallethub/ledger/internal/domain/entities"
	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/ledger"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetupValidator()
}

func routerWithAuth(keyID ids.APIKeyID) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if keyID != "" {
			c.Set(middleware.AuthAPIKeyIDKey, keyID)
		}
		c.Next()
	})
	return router
}

func newTestHold(t *testing.T) *entities.Hold {
	amount := mustMoney(t, "50.00", "USD")
	h, err := entities.NewHold(ids.AccountID("acct-payer"), amount, time.Now().Add(15*time.Minute), ids.EntryID("entry-1"))
	require.NoError(t, err)
	return h
}

func TestCreateHold_Success(t *testing.T) {
	hold := newTestHold(t)
	executor := &fakeExecutor{
		createHold: func(ctx context.Context, req ledger.CreateHoldRequest) (*ledger.CreateHoldResult, error) {
			assert.Equal(t, ids.APIKeyID("caller-1"), req.APIKeyID)
			assert.Equal(t, "50.00", moneyString(req.Amount))
			return &ledger.CreateHoldResult{Hold: hold}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds", handler.CreateHold)

	req := httptest.NewRequest(http.MethodPost, "/holds", strings.NewReader(`{"payer_wallet_id":"`+uuidFixture+`","amount":"50.00","currency":"USD","expires_in_seconds":900}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), hold.ID().String())
}

func TestCreateHold_MissingIdempotencyKey(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds", handler.CreateHold)

	req := httptest.NewRequest(http.MethodPost, "/holds", strings.NewReader(`{"payer_wallet_id":"`+uuidFixture+`","amount":"50.00","currency":"USD","expires_in_seconds":900}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateHold_Unauthenticated(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("")
	router.POST("/holds", handler.CreateHold)

	req := httptest.NewRequest(http.MethodPost, "/holds", strings.NewReader(`{"payer_wallet_id":"`+uuidFixture+`","amount":"50.00","currency":"USD","expires_in_seconds":900}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateHold_InvalidAmount(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds", handler.CreateHold)

	req := httptest.NewRequest(http.MethodPost, "/holds", strings.NewReader(`{"payer_wallet_id":"`+uuidFixture+`","amount":"not-a-number","currency":"USD","expires_in_seconds":900}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateHold_DomainErrorMapped(t *testing.T) {
	executor := &fakeExecutor{
		createHold: func(ctx context.Context, req ledger.CreateHoldRequest) (*ledger.CreateHoldResult, error) {
			return nil, ledgererrors.New(ledgererrors.KindInsufficientFunds, "not enough available balance")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds", handler.CreateHold)

	req := httptest.NewRequest(http.MethodPost, "/holds", strings.NewReader(`{"payer_wallet_id":"`+uuidFixture+`","amount":"50.00","currency":"USD","expires_in_seconds":900}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_FUNDS")
}

func TestCaptureHold_Success(t *testing.T) {
	hold := newTestHold(t)
	executor := &fakeExecutor{
		captureHold: func(ctx context.Context, req ledger.CaptureHoldRequest) (*ledger.CaptureHoldResult, error) {
			assert.Equal(t, ids.HoldID(uuidFixture), req.HoldID)
			assert.Equal(t, "payee-ref", req.PayeeReference)
			return &ledger.CaptureHoldResult{Hold: hold}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds/:id/capture", handler.CaptureHold)

	req := httptest.NewRequest(http.MethodPost, "/holds/"+uuidFixture+"/capture", strings.NewReader(`{"payee_reference":"payee-ref","amount":"25.00","currency":"USD"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-2")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCaptureHold_OmittedAmountDefersToExecutor(t *testing.T) {
	hold := newTestHold(t)
	executor := &fakeExecutor{
		captureHold: func(ctx context.Context, req ledger.CaptureHoldRequest) (*ledger.CaptureHoldResult, error) {
			assert.Nil(t, req.Amount, "omitted amount should reach the executor as nil, not a zero Money")
			assert.Equal(t, "USD", req.Currency.Code())
			return &ledger.CaptureHoldResult{Hold: hold}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds/:id/capture", handler.CaptureHold)

	req := httptest.NewRequest(http.MethodPost, "/holds/"+uuidFixture+"/capture", strings.NewReader(`{"payee_reference":"payee-ref","currency":"USD"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-2")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCaptureHold_InvalidPathID(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds/:id/capture", handler.CaptureHold)

	req := httptest.NewRequest(http.MethodPost, "/holds/not-a-uuid/capture", strings.NewReader(`{"payee_reference":"x","amount":"25.00","currency":"USD"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key-2")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReleaseHold_Success(t *testing.T) {
	hold := newTestHold(t)
	executor := &fakeExecutor{
		releaseHold: func(ctx context.Context, req ledger.ReleaseHoldRequest) (*entities.Hold, error) {
			assert.Equal(t, ids.HoldID(uuidFixture), req.HoldID)
			return hold, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds/:id/release", handler.ReleaseHold)

	req := httptest.NewRequest(http.MethodPost, "/holds/"+uuidFixture+"/release", nil)
	req.Header.Set(idempotencyHeader, "idem-key-3")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReleaseHold_DomainErrorMapped(t *testing.T) {
	executor := &fakeExecutor{
		releaseHold: func(ctx context.Context, req ledger.ReleaseHoldRequest) (*entities.Hold, error) {
			return nil, ledgererrors.New(ledgererrors.KindHoldNotActive, "hold already released")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/holds/:id/release", handler.ReleaseHold)

	req := httptest.NewRequest(http.MethodPost, "/holds/"+uuidFixture+"/release", nil)
	req.Header.Set(idempotencyHeader, "idem-key-3")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "HOLD_NOT_ACTIVE")
}

const uuidFixture = "11111111-1111-1111-1111-111111111111"
