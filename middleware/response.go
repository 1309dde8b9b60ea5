package middleware

import (
	"encoding/json"
	"net/http"
)

// writeEnvelope writes the {code, msg} body the admin SPA expects.
func writeEnvelope(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code": status,
		"msg":  msg,
	})
}
