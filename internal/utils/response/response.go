// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Success responses may be any JSON shape (a student, a list…). Error
// responses always use the Response envelope, so API consumers know what
// a failure looks like.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases:
//
//	{ "status": "error", "error": "field Name is required" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status values for Response.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
// Use this for decode errors, store failures and the like.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts validator field errors into a single
// human-readable Response, one sentence per failing field joined by ", ".
//
//	{ "status": "error", "error": "field Name is required, field Age must be 0 or greater" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "gte", "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be %s or greater", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
