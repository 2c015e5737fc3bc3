// Package handlers render provides JSON response utilities.
package handlers

import (
	"encoding/json"
	"net/http"

	"nhbrcforms/logging"
)

// RenderJSON writes v as the JSON response body with the given status.
func RenderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write JSON response", "error", err.Error())
	}
}
