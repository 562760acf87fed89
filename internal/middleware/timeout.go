package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"briefly/internal/model"
)

// Timeout cuts off handlers that outlive the request deadline. The 503 body
// uses the same envelope as every other error path, marshalled once up front.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "Request timed out",
		},
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
