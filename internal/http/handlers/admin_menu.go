package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taproom-services/internal/catalog"
	"taproom-services/internal/menu"
	"taproom-services/internal/square"
	"taproom-services/internal/store"
	"taproom-services/pkg/response"

	"go.uber.org/zap"
)

type categoriesPayload struct {
	ParentCategories []string `json:"parentCategories"`
	ChildCategories  []string `json:"childCategories"`
	ParentName       *string  `json:"parentName"`
}

// AdminCategoriesGet serves GET /api/admin/categories. An unset taxonomy is
// returned empty rather than as 404 so the dashboard can render its form.
func (h *Handler) AdminCategoriesGet(w http.ResponseWriter, r *http.Request) {
	expected, err := h.Menu.Categories(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		expected = catalog.ExpectedCategories{}
		err = nil
	}
	if err != nil {
		h.logger().Error("load categories failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load categories")
		return
	}
	if expected.ParentCategories == nil {
		expected.ParentCategories = []string{}
	}
	if expected.ChildCategories == nil {
		expected.ChildCategories = []string{}
	}
	response.Success(w, expected)
}

// AdminCategoriesPut serves PUT /api/admin/categories.
func (h *Handler) AdminCategoriesPut(w http.ResponseWriter, r *http.Request) {
	var body categoriesPayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	expected := catalog.ExpectedCategories{
		ParentCategories: body.ParentCategories,
		ChildCategories:  body.ChildCategories,
		ParentName:       body.ParentName,
	}
	err := h.Menu.SetCategories(r.Context(), expected)
	if errors.Is(err, menu.ErrInvalidCategories) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", strings.TrimPrefix(err.Error(), menu.ErrInvalidCategories.Error()+": "))
		return
	}
	if err != nil {
		h.logger().Error("save categories failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save categories")
		return
	}
	saved, err := h.Menu.Categories(r.Context())
	if err != nil {
		saved = expected
	}
	response.Success(w, saved)
}

type squareCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdminSquareCategories serves GET /api/admin/categories/square.
func (h *Handler) AdminSquareCategories(w http.ResponseWriter, r *http.Request) {
	if h.Square == nil {
		response.Error(w, http.StatusServiceUnavailable, "SQUARE_NOT_CONFIGURED", "Square is not configured")
		return
	}
	objects, err := h.Square.ListCategories(r.Context())
	if err != nil {
		h.logger().Error("list square categories failed", zap.Error(err))
		status := http.StatusBadGateway
		if square.IsUnauthorized(err) {
			status = http.StatusServiceUnavailable
		}
		response.Error(w, status, "SQUARE_ERROR", "Failed to load Square categories")
		return
	}
	out := make([]squareCategory, 0, len(objects))
	for _, obj := range objects {
		if obj.CategoryData == nil {
			continue
		}
		out = append(out, squareCategory{ID: obj.ID, Name: obj.CategoryData.Name})
	}
	response.Success(w, out)
}

type refreshResult struct {
	Source     string   `json:"source"`
	Version    int64    `json:"version,omitempty"`
	Categories []string `json:"categories"`
	Items      int      `json:"items"`
	Missing    []string `json:"missing,omitempty"`
}

// AdminMenuRefresh serves POST /api/admin/menu/refresh and waits for the run.
func (h *Handler) AdminMenuRefresh(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Menu.Reconcile(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, menu.ErrNoCategories):
		response.Error(w, http.StatusConflict, "NO_CATEGORIES", "Configure the menu categories first")
		return
	case errors.Is(err, menu.ErrNotConfigured):
		response.Error(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error())
		return
	case errors.Is(err, menu.ErrNoFallback):
		response.Error(w, http.StatusConflict, "CATEGORY_MISMATCH", err.Error())
		return
	default:
		h.logger().Error("manual menu refresh failed", zap.Error(err))
		response.Error(w, http.StatusBadGateway, "SYNC_FAILED", err.Error())
		return
	}

	result := refreshResult{
		Source:     outcome.Source,
		Categories: outcome.Menu.Keys(),
		Items:      len(outcome.Menu.Items()),
		Missing:    outcome.Missing,
	}
	if outcome.Record != nil {
		result.Version = outcome.Record.Version
	}
	response.Success(w, result)
}
