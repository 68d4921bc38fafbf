package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/domain/ids"
)

// WalletIDParam is the :id path parameter for balance and transaction
// listing routes.
type WalletIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// GetBalance returns a wallet's current derived (available, held, total)
// balance in the requested currency.
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}
	currency, ok := currencyFromQuery(c)
	if !ok {
		return
	}

	balance, err := h.executor.GetBalance(c.Request.Context(), ids.WalletID(params.ID), currency)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, newBalanceDTO(balance))
}

// ListTransactions returns a newest-first, cursor-paginated page of
// journal entries touching a wallet's account in the requested currency.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}
	currency, ok := currencyFromQuery(c)
	if !ok {
		return
	}

	var listParams ListParams
	if !BindQuery(c, &listParams) {
		return
	}

	page, err := h.executor.ListTransactions(c.Request.Context(), ids.WalletID(params.ID), currency, listParams.Cursor, listParams.EffectiveLimit())
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	entries := make([]journalEntryDTO, len(page.Entries))
	for i, e := range page.Entries {
		entries[i] = newJournalEntryDTO(e)
	}

	common.SuccessWithMeta(c, http.StatusOK, entries, BuildMeta(page.NextCursor))
}
