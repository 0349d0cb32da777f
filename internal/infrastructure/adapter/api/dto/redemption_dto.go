package dto

// RedeemRequest carries a code typed by the user
type RedeemRequest struct {
	Code string `json:"code"`
}

// RedeemResponse reports the credited amount and the new balance
type RedeemResponse struct {
	Success bool  `json:"success"`
	Amount  int64 `json:"amount"`
	Saldo   int64 `json:"saldo"`
}

// AddCodeRequest registers a code. Secret is the administrative key.
type AddCodeRequest struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
	Secret string `json:"secret"`
}
