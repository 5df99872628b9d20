package middleware

import (
	"io"
	"net/http"
)

// maxRequestBody caps JSON payloads; the largest legit body is a program analysis request.
const maxRequestBody = 4 << 20

// DrainAndCloseRequest limits the request body size, then drains and closes it once the handler returns.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
