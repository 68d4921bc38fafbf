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

func newTestTransferEntry(t *testing.T) *entities.JournalEntry {
	amount := mustMoney(t, "10.00", "USD")
	debit, err := entities.NewJournalLine(ids.EntryID("entry-1"), ids.AccountID("acct-from"), entities.SideDebit, amount, entities.BucketAvailable)
	require.NoError(t, err)
	credit, err := entities.NewJournalLine(ids.EntryID("entry-1"), ids.AccountID("acct-to"), entities.SideCredit, amount, entities.BucketAvailable)
	require.NoError(t, err)

	entry, err := entities.NewJournalEntry(entities.EntryKindTransfer, ids.WalletID("wallet-from"), "", nil, ids.NewIdempotencyKey("idem-key"), "", []entities.JournalLine{debit, credit})
	require.NoError(t, err)
	return entry
}

func TestTransfer_Success(t *testing.T) {
	entry := newTestTransferEntry(t)
	executor := &fakeExecutor{
		transfer: func(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error) {
			assert.Equal(t, ids.APIKeyID("caller-1"), req.APIKeyID)
			assert.Equal(t, "@payee", req.To)
			return &ledger.TransferResult{Entry: entry}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/transfers", handler.Transfer)

	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(
		`{"from_wallet_id":"`+uuidFixture+`","to":"@payee","amount":"10.00","currency":"USD"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), entry.ID().String())
}

func TestTransfer_CurrencyMismatch(t *testing.T) {
	executor := &fakeExecutor{
		transfer: func(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error) {
			return nil, ledgererrors.New(ledgererrors.KindCurrencyMismatch, "wallet currency does not match request")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/transfers", handler.Transfer)

	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(
		`{"from_wallet_id":"`+uuidFixture+`","to":"@payee","amount":"10.00","currency":"EUR"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "CURRENCY_MISMATCH")
}

func TestTransfer_RecipientNotFound(t *testing.T) {
	executor := &fakeExecutor{
		transfer: func(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error) {
			return nil, ledgererrors.New(ledgererrors.KindRecipientNotFound, "no account resolves to that recipient")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/transfers", handler.Transfer)

	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(
		`{"from_wallet_id":"`+uuidFixture+`","to":"@nobody","amount":"10.00","currency":"USD"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransfer_MissingRequiredFields(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.POST("/transfers", handler.Transfer)

	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, "idem-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
