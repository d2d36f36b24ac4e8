package handlers

import "net/http"

const (
	headerContentType = "Content-Type"
	mimeTextPlain     = "text/plain; charset=utf-8"
)

// writeText writes body as text/plain with the given status.
func writeText(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set(headerContentType, mimeTextPlain)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

// writeError writes a plain-text error body.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeText(w, statusCode, message)
}
