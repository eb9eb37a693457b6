package types

// SuccessEnvelope wraps every successful API response body under "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error shape. Code is one of the stable
// machine-readable codes from pkg/errors; Details carries field-level
// validation problems when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error response body under "error".
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
