package httpapi

import (
	"net/http"

	"github.com/tinoosan/banking/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg, "invalid_argument")
}

// writeServiceErr maps a service error kind to its HTTP status and code.
// Unknown failures are reported without their detail.
func writeServiceErr(w http.ResponseWriter, err error) {
	code := errs.Code(err)
	switch code {
	case "invalid_argument":
		writeErr(w, http.StatusBadRequest, err.Error(), code)
	case "account_not_found":
		writeErr(w, http.StatusNotFound, err.Error(), code)
	case "insufficient_funds":
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), code)
	case "store_unavailable":
		writeErr(w, http.StatusServiceUnavailable, "storage is unavailable", code)
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", code)
	}
}
