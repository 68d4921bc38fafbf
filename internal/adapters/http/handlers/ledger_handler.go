package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/adapters/http/middleware"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

// Executor is the subset of *ledger.Executor the HTTP adapter drives.
// Declaring it as an interface here, rather than depending on the
// concrete type directly, keeps this package testable with a fake.
type Executor interface {
	Transfer(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error)
	CreateHold(ctx context.Context, req ledger.CreateHoldRequest) (*ledger.CreateHoldResult, error)
	CaptureHold(ctx context.Context, req ledger.CaptureHoldRequest) (*ledger.CaptureHoldResult, error)
	ReleaseHold(ctx context.Context, req ledger.ReleaseHoldRequest) (*entities.Hold, error)
	CreateIntent(ctx context.Context, req ledger.CreateIntentRequest) (*entities.PaymentIntent, error)
	PayIntent(ctx context.Context, req ledger.PayIntentRequest) (*entities.PaymentIntent, error)
	CancelIntent(ctx context.Context, req ledger.CancelIntentRequest) (*entities.PaymentIntent, error)
	Refund(ctx context.Context, req ledger.RefundRequest) (*entities.Refund, error)
	GetBalance(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency) (ledger.Balance, error)
	ListTransactions(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency, cursor string, limit int) (ledger.ListTransactionsPage, error)
}

// LedgerHandler serves the ten money-movement routes.
type LedgerHandler struct {
	executor Executor
}

// NewLedgerHandler builds a LedgerHandler over the given executor.
func NewLedgerHandler(executor Executor) *LedgerHandler {
	return &LedgerHandler{executor: executor}
}

// idempotencyHeader is the header every write operation requires.
const idempotencyHeader = "Idempotency-Key"

// requireIdempotencyKey reads and canonicalizes the Idempotency-Key
// header, writing a 400 itself when absent.
func requireIdempotencyKey(c *gin.Context) (ids.IdempotencyKey, bool) {
	key := ids.NewIdempotencyKey(c.GetHeader(idempotencyHeader))
	if key.IsEmpty() {
		common.BadRequest(c, "Idempotency-Key header is required")
		return "", false
	}
	return key, true
}

// fingerprint hashes req's canonical JSON encoding so the idempotency
// layer can tell a genuine replay (same key, same payload) from a
// caller reusing a key with a different payload (same key, different
// fingerprint), which is a conflict rather than a replay. Hashing the
// already-bound request rather than the raw body means field order and
// incidental whitespace in what the caller sent never matter.
func fingerprint(req interface{}) (string, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func currencyFromQuery(c *gin.Context) (valueobjects.Currency, bool) {
	code := c.Query("currency")
	if code == "" {
		common.BadRequest(c, "currency query parameter is required")
		return valueobjects.Currency{}, false
	}
	currency, err := valueobjects.NewCurrency(code)
	if err != nil {
		common.BadRequest(c, "invalid currency code")
		return valueobjects.Currency{}, false
	}
	return currency, true
}

func callerAPIKeyID(c *gin.Context) (ids.APIKeyID, bool) {
	keyID := middleware.GetAuthAPIKeyID(c)
	if keyID == "" {
		common.Unauthorized(c, "request is not authenticated")
		return "", false
	}
	return keyID, true
}

// ttlFromSeconds converts a request's expires_in_seconds to a Duration.
// The binding tag on the request DTO already enforces [1, 86400], so this
// never needs a fallback.
func ttlFromSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
