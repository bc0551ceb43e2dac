package dto

// WalletURI binds the path of GET /api/v1/wallets/:user_id.
type WalletURI struct {
	UserID string `uri:"user_id" binding:"required,snowflake"`
}

// CurrencyListResponse is the response for the currency registry.
type CurrencyListResponse struct {
	Currencies []string `json:"currencies"`
}

// BalanceEntry is one currency row of a wallet.
type BalanceEntry struct {
	Currency   string `json:"currency"`
	Amount     int64  `json:"amount"`
	Registered bool   `json:"registered"`
}

// WithdrawalEntry is one withdrawal record.
type WithdrawalEntry struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// WalletResponse is the response for a single user's wallet.
type WalletResponse struct {
	UserID      string            `json:"user_id"`
	Balances    []BalanceEntry    `json:"balances"`
	Withdrawals []WithdrawalEntry `json:"withdrawals"`
}
