package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wisbric/kubeowl/internal/apperror"
)

// errorBody is the JSON error envelope. Error carries an apperror kind
// (NOT_FOUND, CLUSTER_UNREACHABLE, ...) or a transport-level code like
// bad_request; Message is safe to show to callers.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Respond writes data as JSON. The body is marshaled before any header goes
// out, so an encoding failure still yields a well-formed 500 instead of a
// half-written 200.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	if data == nil {
		w.WriteHeader(status)
		return
	}

	buf, err := json.Marshal(data)
	if err != nil {
		slog.Error("encoding response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error"}` + "\n"))
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(buf)
	_, _ = w.Write([]byte("\n"))
}

// RespondError writes an error envelope with an explicit status and code.
// Handlers use this for transport-level failures (bad ids, malformed
// bodies); domain errors go through RespondAppError instead.
func RespondError(w http.ResponseWriter, status int, code string, message string) {
	Respond(w, status, errorBody{
		Error:   code,
		Message: message,
	})
}

// RespondAppError maps a domain error through the apperror taxonomy: the
// kind becomes the error code and status, the public message becomes the
// body. Wrapped causes never reach the caller.
func RespondAppError(w http.ResponseWriter, err error) {
	code := "internal_error"
	if kind := apperror.KindOf(err); kind != "" {
		code = string(kind)
	}
	RespondError(w, apperror.HTTPStatus(err), code, apperror.PublicMessage(err))
}
