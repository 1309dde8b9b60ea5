package httpapi

import (
	"encoding/json"
	"net/http"
)

// Result is the JSON envelope returned by every endpoint. Extra fields sit
// beside code and msg.
type Result map[string]any

func success(msg string) Result {
	return Result{"code": http.StatusOK, "msg": msg}
}

func failure(code int, msg string) Result {
	return Result{"code": code, "msg": msg}
}

// With adds a field to the envelope.
func (r Result) With(key string, value any) Result {
	r[key] = value
	return r
}

// writeJSON writes body with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
