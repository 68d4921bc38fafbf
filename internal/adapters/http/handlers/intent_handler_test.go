package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallethub/ledger/internal/domain/entities"
	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/ledger"
)

func newTestIntent(t *testing.T) *entities.PaymentIntent {
	amount := mustMoney(t, "75.00", "USD")
	intent, err := entities.NewPaymentIntent(ids.AccountID("acct-payee"), ids.WalletID("wallet-payee"), amount, time.Now().Add(24*time.Hour), nil)
	require.NoError(t, err)
	return intent
}

func TestCreateIntent_Success(t *testing.T) {
	intent := newTestIntent(t)
	executor := &fakeExecutor{
		createIntent: func(ctx context.Context, req ledger.CreateIntentRequest) (*entities.PaymentIntent, error) {
			assert.Equal(t, ids.APIKeyID("caller-1"), req.APIKeyID)
			return intent, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents", handler.CreateIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents", strings.NewReader(
		`{"payee_wallet_id":"`+uuidFixture+`","amount":"75.00","currency":"USD","expires_in_seconds":3600}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), intent.ID().String())
}

func TestCreateIntent_InvalidCurrency(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents", handler.CreateIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents", strings.NewReader(
		`{"payee_wallet_id":"`+uuidFixture+`","amount":"75.00","currency":"zzz","expires_in_seconds":3600}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayIntent_Success(t *testing.T) {
	intent := newTestIntent(t)
	executor := &fakeExecutor{
		payIntent: func(ctx context.Context, req ledger.PayIntentRequest) (*entities.PaymentIntent, error) {
			assert.Equal(t, ids.IntentID(uuidFixture), req.IntentID)
			return intent, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents/:id/pay", handler.PayIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents/"+uuidFixture+"/pay", strings.NewReader(
		`{"payer_wallet_id":"`+uuidFixture+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPayIntent_AlreadyPaid(t *testing.T) {
	executor := &fakeExecutor{
		payIntent: func(ctx context.Context, req ledger.PayIntentRequest) (*entities.PaymentIntent, error) {
			return nil, ledgererrors.New(ledgererrors.KindIntentAlreadyPaid, "intent already settled")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents/:id/pay", handler.PayIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents/"+uuidFixture+"/pay", strings.NewReader(
		`{"payer_wallet_id":"`+uuidFixture+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INTENT_ALREADY_PAID")
}

func TestPayIntent_Expired(t *testing.T) {
	executor := &fakeExecutor{
		payIntent: func(ctx context.Context, req ledger.PayIntentRequest) (*entities.PaymentIntent, error) {
			return nil, ledgererrors.New(ledgererrors.KindIntentExpired, "intent expired")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents/:id/pay", handler.PayIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents/"+uuidFixture+"/pay", strings.NewReader(
		`{"payer_wallet_id":"`+uuidFixture+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelIntent_Success(t *testing.T) {
	intent := newTestIntent(t)
	executor := &fakeExecutor{
		cancelIntent: func(ctx context.Context, req ledger.CancelIntentRequest) (*entities.PaymentIntent, error) {
			assert.Equal(t, ids.IntentID(uuidFixture), req.IntentID)
			return intent, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents/:id/cancel", handler.CancelIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents/"+uuidFixture+"/cancel", nil)
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), intent.ID().String())
}

func TestCancelIntent_AlreadyPaid(t *testing.T) {
	executor := &fakeExecutor{
		cancelIntent: func(ctx context.Context, req ledger.CancelIntentRequest) (*entities.PaymentIntent, error) {
			return nil, ledgererrors.New(ledgererrors.KindIntentAlreadyPaid, "intent already settled")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/intents/:id/cancel", handler.CancelIntent)

	req := httptest.NewRequest(http.MethodPost, "/intents/"+uuidFixture+"/cancel", nil)
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INTENT_ALREADY_PAID")
}
