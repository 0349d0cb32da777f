package dto

// ErrorResponse represents a standardized error response for the API
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// SuccessResponse acknowledges a state change without further data
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
