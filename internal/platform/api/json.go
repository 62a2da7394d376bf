package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v with the given status. Encoding errors after the header
// is written cannot be reported to the client and are dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
