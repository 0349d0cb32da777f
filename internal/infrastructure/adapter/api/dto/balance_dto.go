package dto

// BalanceResponse represents the API response for a user's balance
type BalanceResponse struct {
	Saldo int64 `json:"saldo"`
}
