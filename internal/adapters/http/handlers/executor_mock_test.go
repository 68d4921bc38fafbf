package handlers

import (
	"context"

	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

// fakeExecutor is a hand-wired stand-in for *ledger.Executor, letting
// handler tests drive gin.Context -> response mapping without a database.
// Each field is a closure the test sets; an unset closure panics if
// called, which surfaces a test that exercised more than it configured.
type fakeExecutor struct {
	transfer         func(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error)
	createHold       func(ctx context.Context, req ledger.CreateHoldRequest) (*ledger.CreateHoldResult, error)
	captureHold      func(ctx context.Context, req ledger.CaptureHoldRequest) (*ledger.CaptureHoldResult, error)
	releaseHold      func(ctx context.Context, req ledger.ReleaseHoldRequest) (*entities.Hold, error)
	createIntent     func(ctx context.Context, req ledger.CreateIntentRequest) (*entities.PaymentIntent, error)
	payIntent        func(ctx context.Context, req ledger.PayIntentRequest) (*entities.PaymentIntent, error)
	cancelIntent     func(ctx context.Context, req ledger.CancelIntentRequest) (*entities.PaymentIntent, error)
	refund           func(ctx context.Context, req ledger.RefundRequest) (*entities.Refund, error)
	getBalance       func(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency) (ledger.Balance, error)
	listTransactions func(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency, cursor string, limit int) (ledger.ListTransactionsPage, error)
}

func (f *fakeExecutor) Transfer(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error) {
	return f.transfer(ctx, req)
}

func (f *fakeExecutor) CreateHold(ctx context.Context, req ledger.CreateHoldRequest) (*ledger.CreateHoldResult, error) {
	return f.createHold(ctx, req)
}

func (f *fakeExecutor) CaptureHold(ctx context.Context, req ledger.CaptureHoldRequest) (*ledger.CaptureHoldResult, error) {
	return f.captureHold(ctx, req)
}

func (f *fakeExecutor) ReleaseHold(ctx context.Context, req ledger.ReleaseHoldRequest) (*entities.Hold, error) {
	return f.releaseHold(ctx, req)
}

func (f *fakeExecutor) CreateIntent(ctx context.Context, req ledger.CreateIntentRequest) (*entities.PaymentIntent, error) {
	return f.createIntent(ctx, req)
}

func (f *fakeExecutor) PayIntent(ctx context.Context, req ledger.PayIntentRequest) (*entities.PaymentIntent, error) {
	return f.payIntent(ctx, req)
}

func (f *fakeExecutor) CancelIntent(ctx context.Context, req ledger.CancelIntentRequest) (*entities.PaymentIntent, error) {
	return f.cancelIntent(ctx, req)
}

func (f *fakeExecutor) Refund(ctx context.Context, req ledger.RefundRequest) (*entities.Refund, error) {
	return f.refund(ctx, req)
}

func (f *fakeExecutor) GetBalance(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency) (ledger.Balance, error) {
	return f.getBalance(ctx, walletID, currency)
}

func (f *fakeExecutor) ListTransactions(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency, cursor string, limit int) (ledger.ListTransactionsPage, error) {
	return f.listTransactions(ctx, walletID, currency, cursor, limit)
}

var _ Executor = (*fakeExecutor)(nil)

func mustCurrency(t interface{ Fatalf(string, ...interface{}) }, code string) valueobjects.Currency {
	c, err := valueobjects.NewCurrency(code)
	if err != nil {
		t.Fatalf("mustCurrency(%s): %v", code, err)
	}
	return c
}

func mustMoney(t interface{ Fatalf(string, ...interface{}) }, amount, code string) valueobjects.Money {
	currency := mustCurrency(t, code)
	m, err := valueobjects.ParseDecimal(amount, currency)
	if err != nil {
		t.Fatalf("mustMoney(%s %s): %v", amount, code, err)
	}
	return m
}
