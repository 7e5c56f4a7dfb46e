package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prior-it/addressd/core"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// DefaultErrorHandler logs err and answers with a JSON error body.
// Invalid input maps to 400, missing records to 404, conflicts to 409 and expired request deadlines to 504.
// Anything else is a 500. Only the message of a core.InputError reaches the client, other details stay in the logs.
func DefaultErrorHandler(request *Request, err error) {
	code, msg := func() (int, string) {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			var inputErr *core.InputError
			if errors.As(err, &inputErr) {
				return http.StatusBadRequest, inputErr.Message
			}
			return http.StatusBadRequest, "invalid input"
		case errors.Is(err, core.ErrNotFound):
			return http.StatusNotFound, "not found"
		case errors.Is(err, core.ErrConflict):
			return http.StatusConflict, "conflict"
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout, "request timed out"
		}
		return http.StatusInternalServerError, "internal server error"
	}()
	if code >= http.StatusInternalServerError {
		request.Error("Server error", "error", err, "status", code)
	} else {
		request.Debug("Request failed", "error", err, "status", code)
	}
	request.JSON(code, ErrorResponse{Error: msg})
}
