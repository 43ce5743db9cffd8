package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookster/catalog-server/internal/http/response"
)

// EnvelopeVersion is the envelope format version, serialized as "v".
// Clients reject envelopes with a version they do not know.
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful responses and plain errors.
type APIEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps errors that carry a machine-readable code.
type APIErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps every response body.
// Statuses below 400 wrap the body as data. Coded *APIError values become
// an APIErrorEnvelope; any other error becomes an APIEnvelope carrying its
// message.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}

	if code < 400 {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	var apiErr *APIError
	if e, ok := v.(error); ok && errors.As(e, &apiErr) && apiErr.Code != "" {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	env := APIEnvelope{Version: EnvelopeVersion}
	switch e := v.(type) {
	case error:
		env.Error = e.Error()
	case nil:
		env.Error = "request failed"
	default:
		env.Data = v
		env.Error = "request failed"
	}
	return env, nil
}
