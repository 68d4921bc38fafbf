package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

// CreateIntentRequest is the POST /api/v1/intents body.
type CreateIntentRequest struct {
	PayeeWalletID    string            `json:"payee_wallet_id" binding:"required,uuid"`
	Amount           string            `json:"amount" binding:"required,money_amount"`
	Currency         string            `json:"currency" binding:"required,currency_code"`
	ExpiresInSeconds int               `json:"expires_in_seconds" binding:"required,min=1,max=86400"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// IntentIDParam is the :id path parameter.
type IntentIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// PayIntentRequest is the POST /api/v1/intents/:id/pay body.
type PayIntentRequest struct {
	PayerWalletID string `json:"payer_wallet_id" binding:"required,uuid"`
}

// CreateIntent opens a pending, expiring invoice against a payee account.
func (h *LedgerHandler) CreateIntent(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req CreateIntentRequest
	if !BindJSON(c, &req) {
		return
	}

	currency, err := valueobjects.NewCurrency(req.Currency)
	if err != nil {
		common.BadRequest(c, "invalid currency code")
		return
	}
	amount, err := valueobjects.ParseDecimal(req.Amount, currency)
	if err != nil {
		common.BadRequest(c, "invalid amount")
		return
	}

	fp, err := fingerprint(req)
	if err != nil {
		common.BadRequest(c, "failed to hash request body")
		return
	}

	intent, err := h.executor.CreateIntent(c.Request.Context(), ledger.CreateIntentRequest{
		APIKeyID:       apiKeyID,
		PayeeWalletID:  ids.WalletID(req.PayeeWalletID),
		Amount:         amount,
		TTL:            ttlFromSeconds(req.ExpiresInSeconds),
		Metadata:       req.Metadata,
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, newIntentDTO(intent))
}

// PayIntent settles a pending intent from the payer's available balance.
func (h *LedgerHandler) PayIntent(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var params IntentIDParam
	if !BindURI(c, &params) {
		return
	}
	var req PayIntentRequest
	if !BindJSON(c, &req) {
		return
	}

	fp, err := fingerprint(req)
	if err != nil {
		common.BadRequest(c, "failed to hash request body")
		return
	}

	intent, err := h.executor.PayIntent(c.Request.Context(), ledger.PayIntentRequest{
		APIKeyID:       apiKeyID,
		IntentID:       ids.IntentID(params.ID),
		PayerWalletID:  ids.WalletID(req.PayerWalletID),
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, newIntentDTO(intent))
}

// CancelIntent cancels a still-pending intent; no funds ever moved, so
// this is a pure state transition.
func (h *LedgerHandler) CancelIntent(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var params IntentIDParam
	if !BindURI(c, &params) {
		return
	}

	fp, err := fingerprint(params)
	if err != nil {
		common.BadRequest(c, "failed to hash request body")
		return
	}

	intent, err := h.executor.CancelIntent(c.Request.Context(), ledger.CancelIntentRequest{
		APIKeyID:       apiKeyID,
		IntentID:       ids.IntentID(params.ID),
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, newIntentDTO(intent))
}
