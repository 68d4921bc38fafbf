package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

// TransferRequest is the POST /api/v1/transfers body.
type TransferRequest struct {
	FromWalletID string            `json:"from_wallet_id" binding:"required,uuid"`
	To           string            `json:"to" binding:"required"`
	Amount       string            `json:"amount" binding:"required,money_amount"`
	Currency     string            `json:"currency" binding:"required,currency_code"`
	ReferenceID  string            `json:"reference_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Transfer moves funds directly from one wallet to a resolved recipient.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req TransferRequest
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

	result, err := h.executor.Transfer(c.Request.Context(), ledger.TransferRequest{
		APIKeyID:       apiKeyID,
		FromWalletID:   ids.WalletID(req.FromWalletID),
		To:             req.To,
		Amount:         amount,
		ReferenceID:    req.ReferenceID,
		Metadata:       req.Metadata,
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, newJournalEntryDTO(result.Entry))
}
