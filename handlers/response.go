package handlers

import (
	"encoding/json"
	"net/http"

	"pageCraftNN/internal/schema"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

type errorResponse struct {
	Error   string              `json:"error"`
	Details []schema.FieldError `json:"details,omitempty"`
}

func respondWithDetails(w http.ResponseWriter, code int, message string, details []schema.FieldError) {
	respondWithJSON(w, code, errorResponse{Error: message, Details: details})
}
