package dto

import "encoding/json"

// SpinResponse is the outcome of one spin. Prize is the configured item object, unchanged.
type SpinResponse struct {
	Prize     json.RawMessage `json:"prize"`
	SpinID    uint64          `json:"spinId"`
	Time      string          `json:"time"`
	Timestamp string          `json:"timestamp"`
	Saldo     int64           `json:"saldo"`
}

// SpinHistoryItem is one past spin
type SpinHistoryItem struct {
	SpinID    uint64 `json:"spinId"`
	Prize     string `json:"prize"`
	Timestamp string `json:"timestamp"`
}

// SpinHistoryResponse lists a user's spins, newest first
type SpinHistoryResponse struct {
	Spins []SpinHistoryItem `json:"spins"`
}
