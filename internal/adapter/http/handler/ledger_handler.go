package handler

import (
	"sort"

	"gambling-bot/internal/adapter/http/dto"
	"gambling-bot/internal/core/ports"
	"gambling-bot/pkg/apperror"
	"gambling-bot/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler serves read-only views of the ledger.
type LedgerHandler struct {
	ledger ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// ListCurrencies handles GET /api/v1/currencies.
func (h *LedgerHandler) ListCurrencies(c *gin.Context) {
	response.OK(c, dto.CurrencyListResponse{Currencies: h.ledger.Currencies()})
}

// GetWallet handles GET /api/v1/wallets/:user_id. It never creates a wallet.
func (h *LedgerHandler) GetWallet(c *gin.Context) {
	var uri dto.WalletURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.ErrInvalidUserID())
		return
	}

	w, err := h.ledger.Wallet(c.Request.Context(), uri.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	registry := h.ledger.Currencies()
	registered := make(map[string]bool, len(registry))
	for _, cur := range registry {
		registered[cur] = true
	}

	resp := dto.WalletResponse{
		UserID:      uri.UserID,
		Balances:    make([]dto.BalanceEntry, 0, len(w.Balances)),
		Withdrawals: make([]dto.WithdrawalEntry, 0, len(w.Withdrawals)),
	}
	for _, cur := range registry {
		if amount, ok := w.Balances[cur]; ok {
			resp.Balances = append(resp.Balances, dto.BalanceEntry{Currency: cur, Amount: amount, Registered: true})
		}
	}
	var stale []string
	for cur := range w.Balances {
		if !registered[cur] {
			stale = append(stale, cur)
		}
	}
	sort.Strings(stale)
	for _, cur := range stale {
		resp.Balances = append(resp.Balances, dto.BalanceEntry{Currency: cur, Amount: w.Balances[cur]})
	}
	for _, wd := range w.Withdrawals {
		resp.Withdrawals = append(resp.Withdrawals, dto.WithdrawalEntry{Amount: wd.Amount, Currency: wd.Currency})
	}

	response.OK(c, resp)
}
