package web

// errors.go turns service errors into JSON responses. The technical error
// is logged with the request id; the client gets the mapped user message
// and code so remote callers can rebuild the sentinel with
// core.ErrorFromCode.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/images"
	"github.com/JonMunkholm/cardinventory/internal/logging"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConfirmationRequired),
		errors.Is(err, core.ErrInvalidField),
		errors.Is(err, core.ErrInvalidCSV),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrNothingToImport),
		errors.Is(err, images.ErrInvalidPath),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request rejected", args...)
	}

	detail := msg.Message
	if status < http.StatusInternalServerError {
		detail = err.Error()
	}
	writeErrorJSON(w, status, detail, msg)
}

// respondValidation writes a 400 with per-field messages.
func (s *Server) respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	fields := core.FormatValidationError(err)
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path, "method", r.Method, "fields", fields)

	msg := core.MapError(core.ErrInvalidField)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "invalid request",
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Fields:  fields,
	})
}

func writeErrorJSON(w http.ResponseWriter, status int, detail string, msg core.UserMessage) {
	writeJSON(w, status, ErrorResponse{
		Error:   detail,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
