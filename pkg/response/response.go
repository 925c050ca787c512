package response

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

// Invalid reports per-field validation problems.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   "VALIDATION_ERROR",
		"message": "Invalid request",
		"fields":  fields,
	})
}

// Failure writes the bare {error, details} body used by the menu endpoints.
func Failure(w http.ResponseWriter, status int, message string, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	JSON(w, status, body)
}

// NoCache marks a response as never cacheable.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
