package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookster/catalog-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// FieldError describes one rejected request parameter.
type FieldError struct {
	Location string `json:"location,omitempty" doc:"Where the error occurred, e.g. query.limit"`
	Message  string `json:"message" doc:"What is wrong with the value"`
	Value    any    `json:"value,omitempty" doc:"The rejected value"`
}

// RegisterErrorHandler makes huma build every error response from domain
// errors. Server errors are logged with their cause; client errors are
// not. Call it after creating the huma.API but before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fields []FieldError
		for _, err := range errs {
			if err == nil {
				continue
			}

			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				apiErr := &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
				if apiErr.status >= http.StatusInternalServerError {
					logger.Error("request failed", "code", apiErr.Code, "error", err)
				}
				return apiErr
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				fields = append(fields, FieldError{
					Location: detail.Location,
					Message:  detail.Message,
					Value:    detail.Value,
				})
				continue
			}

			if status >= http.StatusInternalServerError {
				logger.Error("request failed", "status", status, "error", err)
			}
		}

		// Request validation failures are reported as bad arguments.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		apiErr := &APIError{
			status:  status,
			Code:    string(statusToCode(status)),
			Message: message,
		}
		if len(fields) > 0 {
			apiErr.Details = fields
		}
		return apiErr
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return domainerrors.CodeInvalidArgument
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthenticated
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusMethodNotAllowed:
		return domainerrors.CodeMethodNotAllowed
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	case http.StatusServiceUnavailable:
		return domainerrors.CodeUpstreamUnavailable
	default:
		return domainerrors.CodeInternal
	}
}

// statusError converts a handler error into a huma.StatusError carrying
// the status mapped from its domain code. Errors that already carry a
// status pass through.
func statusError(err error) error {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}
	return huma.NewError(http.StatusInternalServerError, "unexpected error occurred", err)
}
