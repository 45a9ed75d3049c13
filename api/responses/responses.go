// Package responses writes the JSON envelopes every storefront endpoint
// answers with: {"data": ...} on success and {"error": {...}} on failure.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. RequestID echoes the
// X-Request-Id header so a client report can be matched to server logs.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessEnvelope{Data: data})
}

// WriteError maps err to its coded status and envelope. Errors without a code
// are reported as internal and their text is kept out of the response.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	apiErr := APIError{
		Code:      string(typed.Code()),
		Message:   meta.PublicMessage,
		Retryable: meta.Retryable,
		RequestID: w.Header().Get(requestIDHeader),
	}
	if meta.ExposeMessage && typed.Message() != "" {
		apiErr.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}

	if logg != nil {
		logError(ctx, logg, meta, err)
	}

	writeJSON(w, meta.HTTPStatus, ErrorEnvelope{Error: apiErr})
}

func logError(ctx context.Context, logg *logger.Logger, meta pkgerrors.Metadata, err error) {
	fields := pkgerrors.Dump(err).Fields()
	fields["status"] = meta.HTTPStatus

	ctx = logg.WithFields(ctx, fields)
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
