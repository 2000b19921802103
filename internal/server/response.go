package server

import (
	"encoding/json"
	"net/http"

	"github.com/mkondo/notionsync/internal/logger"
)

// errorResponse is the wire shape for every failure. Internal error
// detail stays in the server log; clients get a generic message.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", err, nil)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
