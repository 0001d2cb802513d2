package types

// Envelope is the uniform response body. Token carries the caller's session
// credential back on every mutating cart/checkout response so front ends
// that cannot rely on cross-site cookies stay authenticated.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
