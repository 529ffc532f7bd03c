// Package httpserver contains the HTTP handlers and middleware for the
// public and admin API surfaces; internal/app mounts them on the router.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// ProblemDetail is an RFC 7807-shaped error body. Type is always
// "about:blank" since none of these responses define a dereferenceable
// problem type.
type ProblemDetail struct {
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError names one invalid request field and why it was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newProblem(status int, title, detail string) ProblemDetail {
	return ProblemDetail{Type: "about:blank", Title: title, Status: status, Detail: detail}
}

func notFoundProblem(detail string) ProblemDetail      { return newProblem(http.StatusNotFound, "Not Found", detail) }
func badRequestProblem(detail string) ProblemDetail     { return newProblem(http.StatusBadRequest, "Bad Request", detail) }
func unauthorizedProblem(detail string) ProblemDetail   { return newProblem(http.StatusUnauthorized, "Unauthorized", detail) }
func conflictProblem(detail string) ProblemDetail       { return newProblem(http.StatusConflict, "Conflict", detail) }
func internalProblem(detail string) ProblemDetail       { return newProblem(http.StatusInternalServerError, "Internal Server Error", detail) }
func badGatewayProblem(detail string) ProblemDetail     { return newProblem(http.StatusBadGateway, "Bad Gateway", detail) }
func gatewayTimeoutProblem(detail string) ProblemDetail { return newProblem(http.StatusGatewayTimeout, "Gateway Timeout", detail) }

func validationProblem(detail string, fields []FieldError) ProblemDetail {
	p := newProblem(http.StatusBadRequest, "Validation Error", detail)
	p.Errors = fields
	return p
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a domain error sentinel into the matching
// ProblemDetail and writes it.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeProblem(w, badRequestProblem(err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, notFoundProblem(err.Error()))
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, conflictProblem(err.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, unauthorizedProblem(err.Error()))
	case errors.Is(err, domain.ErrBadGateway):
		writeProblem(w, badGatewayProblem(err.Error()))
	case errors.Is(err, domain.ErrGatewayTimeout):
		writeProblem(w, gatewayTimeoutProblem(err.Error()))
	default:
		writeProblem(w, internalProblem(err.Error()))
	}
}
