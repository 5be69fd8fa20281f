// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
