package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wallethub/ledger/internal/domain/entities"
	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

func TestGetBalance_Success(t *testing.T) {
	currency := mustCurrency(t, "USD")
	executor := &fakeExecutor{
		getBalance: func(ctx context.Context, walletID ids.WalletID, c valueobjects.Currency) (ledger.Balance, error) {
			assert.Equal(t, ids.WalletID(uuidFixture), walletID)
			return ledger.Balance{
				Available: mustMoney(t, "80.00", "USD"),
				Held:      mustMoney(t, "20.00", "USD"),
				Total:     mustMoney(t, "100.00", "USD"),
				Currency:  currency,
			}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.GET("/wallets/:id/balance", handler.GetBalance)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+uuidFixture+"/balance?currency=USD", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "80.00")
	assert.Contains(t, w.Body.String(), "100.00")
}

func TestGetBalance_MissingCurrency(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.GET("/wallets/:id/balance", handler.GetBalance)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+uuidFixture+"/balance", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalance_NoAccountForWallet(t *testing.T) {
	executor := &fakeExecutor{
		getBalance: func(ctx context.Context, walletID ids.WalletID, c valueobjects.Currency) (ledger.Balance, error) {
			return ledger.Balance{}, ledgererrors.New(ledgererrors.KindRecipientNotFound, "no account for that wallet in the requested currency")
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.GET("/wallets/:id/balance", handler.GetBalance)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+uuidFixture+"/balance?currency=USD", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransactions_Paginates(t *testing.T) {
	entry := newTestTransferEntry(t)
	executor := &fakeExecutor{
		listTransactions: func(ctx context.Context, walletID ids.WalletID, c valueobjects.Currency, cursor string, limit int) (ledger.ListTransactionsPage, error) {
			assert.Equal(t, ids.WalletID(uuidFixture), walletID)
			assert.Equal(t, 25, limit)
			assert.Equal(t, "cursor-abc", cursor)
			return ledger.ListTransactionsPage{
				Entries:    []*entities.JournalEntry{entry},
				NextCursor: "cursor-def",
			}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.GET("/wallets/:id/transactions", handler.ListTransactions)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+uuidFixture+"/transactions?currency=USD&cursor=cursor-abc&limit=25", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), entry.ID().String())
	assert.Contains(t, w.Body.String(), "cursor-def")
}

func TestListTransactions_DefaultsLimit(t *testing.T) {
	entry := newTestTransferEntry(t)
	executor := &fakeExecutor{
		listTransactions: func(ctx context.Context, walletID ids.WalletID, c valueobjects.Currency, cursor string, limit int) (ledger.ListTransactionsPage, error) {
			assert.Equal(t, 50, limit)
			return ledger.ListTransactionsPage{Entries: []*entities.JournalEntry{entry}}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.GET("/wallets/:id/transactions", handler.ListTransactions)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+uuidFixture+"/transactions?currency=USD", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTransactions_NoNextCursorOmitsMeta(t *testing.T) {
	executor := &fakeExecutor{
		listTransactions: func(ctx context.Context, walletID ids.WalletID, c valueobjects.Currency, cursor string, limit int) (ledger.ListTransactionsPage, error) {
			return ledger.ListTransactionsPage{Entries: nil, NextCursor: ""}, nil
		},
	}
	handler := NewLedgerHandler(executor)

	router := routerWithAuth("caller-1")
	router.GET("/wallets/:id/transactions", handler.ListTransactions)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+uuidFixture+"/transactions?currency=USD", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "next_cursor")
}
