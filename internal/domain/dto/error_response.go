package dto

import "time"

// ErrorResponse is the JSON body of every failed API call.
//
// Example:
//
//	{
//	  "message": "invalid request body",
//	  "error": "json: cannot unmarshal string into Go struct field",
//	  "timestamp": "2025-03-14T10:00:00Z"
//	}
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid request body"`
	ErrorDetails string    `json:"error,omitempty" example:"scale: invalid decimal"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewErrorResponse builds an ErrorResponse stamped with the current time.
// A nil err leaves ErrorDetails empty.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
