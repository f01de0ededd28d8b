package dto

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	// Retry tells the page whether offering "try again" makes sense.
	Retry bool `json:"retry"`
}
