package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/ledger"
)

// RefundRequest is the POST /api/v1/refunds body. Amount is optional and
// omitting it refunds whatever remains refundable; currency is never a
// request field — it is derived from the entry being refunded.
type RefundRequest struct {
	SourceEntryID string `json:"source_entry_id" binding:"required,uuid"`
	Amount        string `json:"amount,omitempty" binding:"omitempty,money_amount"`
}

// Refund reverses all or part of a prior capture or intent payment.
func (h *LedgerHandler) Refund(c *gin.Context) {
	apiKeyID, ok := callerAPIKeyID(c)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req RefundRequest
	if !BindJSON(c, &req) {
		return
	}

	fp, err := fingerprint(req)
	if err != nil {
		common.BadRequest(c, "failed to hash request body")
		return
	}

	refund, err := h.executor.Refund(c.Request.Context(), ledger.RefundRequest{
		APIKeyID:       apiKeyID,
		SourceEntryID:  ids.EntryID(req.SourceEntryID),
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fp,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, newRefundDTO(refund))
}
