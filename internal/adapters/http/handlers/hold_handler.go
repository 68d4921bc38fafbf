package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

// CreateHoldRequest is the POST /api/v1/holds body.
type CreateHoldRequest struct {
	PayerWalletID    string `json:"payer_wallet_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required,money_amount"`
	Currency         string `json:"currency" binding:"required,currency_code"`
	ExpiresInSeconds int    `json:"expires_in_seconds" binding:"required,min=1,max=86400"`
}

// HoldIDParam is the :id path parameter shared by capture and release.
type HoldIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// CaptureHoldRequest is the POST /api/v1/holds/:id/capture body. Amount is
// optional — omitting it captures whatever remains on the hold.
type CaptureHoldRequest struct {
	PayeeReference string `json:"payee_reference" binding:"required"`
	Amount         string `json:"amount,omitempty" binding:"omitempty,money_amount"`
	Currency       string `json:"currency" binding:"required,currency_code"`
}

// CreateHold places a hold against a payer's available balance.
func (h *LedgerHandler) CreateHold(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req CreateHoldRequest
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

	result, err := h.executor.CreateHold(c.Request.Context(), ledger.CreateHoldRequest{
		APIKeyID:       apiKeyID,
		PayerWalletID:  ids.WalletID(req.PayerWalletID),
		Amount:         amount,
		TTL:            ttlFromSeconds(req.ExpiresInSeconds),
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, newHoldDTO(result.Hold))
}

// CaptureHold captures all or part of an active hold.
func (h *LedgerHandler) CaptureHold(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var params HoldIDParam
	if !BindURI(c, &params) {
		return
	}
	var req CaptureHoldRequest
	if !BindJSON(c, &req) {
		return
	}

	currency, err := valueobjects.NewCurrency(req.Currency)
	if err != nil {
		common.BadRequest(c, "invalid currency code")
		return
	}
	var amount *valueobjects.Money
	if req.Amount != "" {
		parsed, err := valueobjects.ParseDecimal(req.Amount, currency)
		if err != nil {
			common.BadRequest(c, "invalid amount")
			return
		}
		amount = &parsed
	}

	fp, err := fingerprint(req)
	if err != nil {
		common.BadRequest(c, "failed to hash request body")
		return
	}

	result, err := h.executor.CaptureHold(c.Request.Context(), ledger.CaptureHoldRequest{
		APIKeyID:       apiKeyID,
		HoldID:         ids.HoldID(params.ID),
		PayeeReference: req.PayeeReference,
		Currency:       currency,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, newHoldDTO(result.Hold))
}

// ReleaseHold voluntarily releases whatever remains on a hold.
func (h *LedgerHandler) ReleaseHold(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var params HoldIDParam
	if !BindURI(c, &params) {
		return
	}

	fp, err := fingerprint(params)
	if err != nil {
		common.BadRequest(c, "failed to hash request body")
		return
	}

	hold, err := h.executor.ReleaseHold(c.Request.Context(), ledger.ReleaseHoldRequest{
		APIKeyID:       apiKeyID,
		HoldID:         ids.HoldID(params.ID),
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, newHoldDTO(hold))
}
