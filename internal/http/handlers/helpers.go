package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taproom-services/internal/store"
	"taproom-services/pkg/response"

	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

// writeStoreError maps store failures to responses and reports whether it
// wrote one.
func writeStoreError(w http.ResponseWriter, err error, what string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", what+" not found")
		return true
	}
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load "+strings.ToLower(what))
	return true
}
