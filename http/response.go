package http

import (
	"encoding/json"
	"net/http"
)

// Response wraps http.ResponseWriter with Flask-style helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response — Flask's jsonify with an explicit status.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// OK sends 200 with a JSON body.
func (res *Response) OK(v any) {
	res.JSON(http.StatusOK, v)
}

// Created sends 201 with a JSON body.
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, v)
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Abort sends an error response with the status's standard text, or a
// custom message when given — Flask's abort(status).
//
//	res.Abort(http.StatusNotFound)
//	res.Abort(http.StatusForbidden, "admins only")
func (res *Response) Abort(status int, message ...string) {
	msg := http.StatusText(status)
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	res.JSON(status, envelope{"message": msg})
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	res.Abort(http.StatusInternalServerError, message...)
}

// ── Redirects ────────────────────────────────────────────────────────────────

// Redirect sends a redirect with the given status code.
func (res *Response) Redirect(status int, url string) {
	res.w.Header().Set("Location", url)
	res.w.WriteHeader(status)
}

// RedirectTo sends a 302 redirect — Flask's redirect(url).
func (res *Response) RedirectTo(url string) {
	res.Redirect(http.StatusFound, url)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any
