package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/contactbook/contactbook-go/internal/service"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20 // 1MB

type errorBody struct {
	Error     string       `json:"error"`
	Kind      service.Kind `json:"kind"`
	Retryable bool         `json:"retryable,omitempty"`
}

var kindStatus = map[service.Kind]int{
	service.KindInvalidCredentials: http.StatusUnauthorized,
	service.KindInvalidToken:       http.StatusUnauthorized,
	service.KindNotFound:           http.StatusNotFound,
	service.KindConflict:           http.StatusBadRequest,
	service.KindValidation:         http.StatusBadRequest,
	service.KindStoreUnavailable:   http.StatusServiceUnavailable,
	service.KindInternal:           http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its status code and JSON body. Causes
// of 5xx errors are logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = &service.Error{Kind: service.KindInternal, Msg: service.ErrInternal.Msg, Err: err}
	}

	status, ok := kindStatus[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	switch svcErr.Kind {
	case service.KindInvalidCredentials:
		w.Header().Set("WWW-Authenticate", `Basic realm="contactbook", charset="UTF-8"`)
	case service.KindInvalidToken:
		w.Header().Set("WWW-Authenticate", `Bearer realm="contactbook"`)
	case service.KindStoreUnavailable:
		w.Header().Set("Retry-After", "1")
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "kind", svcErr.Kind, "error", err)
	}

	writeJSON(w, status, errorBody{
		Error:     svcErr.Msg,
		Kind:      svcErr.Kind,
		Retryable: svcErr.Kind.Retryable(),
	})
}

// decodeJSON reads a size-capped JSON body into v, writing the error response
// itself and returning false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", Kind: service.KindValidation})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Kind: service.KindValidation})
		return false
	}

	return true
}
