package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds the buffered request body.
const DefaultMaxBodyBytes int64 = 10 << 20

type bodyContextKey struct{}

// RepeatableBody reads the request body into memory once and replaces it with
// a re-readable copy. r.GetBody returns a fresh reader over the same bytes and
// BodyBytes exposes them directly. Bodies over maxBytes get a 413.
func RepeatableBody(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			_ = r.Body.Close()
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeEnvelope(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				writeEnvelope(w, http.StatusBadRequest, "unable to read request body")
				return
			}

			next.ServeHTTP(w, withBody(r, data))
		})
	}
}

// BodyBytes returns the buffered body, or nil when RepeatableBody did not run.
func BodyBytes(r *http.Request) []byte {
	data, _ := r.Context().Value(bodyContextKey{}).([]byte)
	return data
}

// withBody returns a shallow copy of r whose body is data.
func withBody(r *http.Request, data []byte) *http.Request {
	r = r.WithContext(context.WithValue(r.Context(), bodyContextKey{}, data))
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	r.ContentLength = int64(len(data))
	return r
}
