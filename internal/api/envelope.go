package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
)

// EnvelopeVersion is the version of the response envelope. Clients check it before
// decoding data.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response and plain errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps a structured error response.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in the envelope.
// Handlers may return domain errors directly since they implement huma.StatusError;
// those are enveloped the same way as APIError.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}

	if code >= 400 {
		var apiErr *APIError
		if e, ok := v.(error); ok && errors.As(e, &apiErr) {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   apiErr.Message,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		var domainErr *domainerrors.Error
		if e, ok := v.(error); ok && errors.As(e, &domainErr) {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   domainErr.Message,
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}, nil
		}
		if e, ok := v.(error); ok {
			return APIEnvelope{Version: EnvelopeVersion, Error: e.Error()}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Data: v}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
