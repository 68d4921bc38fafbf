package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallethub/ledger/internal/domain/entities"
	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/ledger"
)

func newTestRefund(t *testing.T) *entities.Refund {
	amount := mustMoney(t, "15.00", "USD")
	refund, err := entities.NewRefund(ids.EntryID(uuidFixture), amount, ids.EntryID("posting-entry-1"))
	require.NoError(t, err)
	return refund
}

func TestRefund_Success(t *testing.T) {
	refund := newTestRefund(t)
	executor := &fakeExecutor{
		refund: func(ctx context.Context, req ledger.RefundRequest) (*entities.Refund, error) {
			assert.Equal(t, ids.EntryID(uuidFixture), req.SourceEntryID)
			return refund, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/refunds", handler.Refund)

	req := httptest.NewRequest(http.MethodPost, "/refunds", strings.NewReader(
		`{"source_entry_id":"`+uuidFixture+`","amount":"15.00"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), refund.ID().String())
}

func TestRefund_OmittedAmountDefersToExecutor(t *testing.T) {
	refund := newTestRefund(t)
	executor := &fakeExecutor{
		refund: func(ctx context.Context, req ledger.RefundRequest) (*entities.Refund, error) {
			assert.Equal(t, ids.EntryID(uuidFixture), req.SourceEntryID)
			assert.Equal(t, "", req.Amount, "omitted amount should reach the executor as empty, not a guessed value")
			return refund, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/refunds", handler.Refund)

	req := httptest.NewRequest(http.MethodPost, "/refunds", strings.NewReader(
		`{"source_entry_id":"`+uuidFixture+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRefund_ExceedsCapture(t *testing.T) {
	executor := &fakeExecutor{
		refund: func(ctx context.Context, req ledger.RefundRequest) (*entities.Refund, error) {
			return nil, ledgererrors.New(ledgererrors.KindRefundExceedsCapture, "refund exceeds what remains refundable")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/refunds", handler.Refund)

	req := httptest.NewRequest(http.MethodPost, "/refunds", strings.NewReader(
		`{"source_entry_id":"`+uuidFixture+`","amount":"1500.00"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "REFUND_EXCEEDS_CAPTURE")
}

func TestRefund_MissingIdempotencyKey(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/refunds", handler.Refund)

	req := httptest.NewRequest(http.MethodPost, "/refunds", strings.NewReader(
		`{"source_entry_id":"`+uuidFixture+`","amount":"15.00"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
