package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taproom-services/internal/menu"
	"taproom-services/internal/store"
	"taproom-services/internal/utils"
	"taproom-services/pkg/response"

	"go.uber.org/zap"
)

const (
	menuSourceHeader  = "X-Menu-Source"
	menuVersionHeader = "X-Menu-Version"
)

// CatalogSync serves GET /api/catalog and GET /api/square/catalog: it runs a
// reconciliation and returns the resulting menu.
func (h *Handler) CatalogSync(w http.ResponseWriter, r *http.Request) {
	response.NoCache(w)
	outcome, err := h.Menu.Reconcile(r.Context())
	if err != nil {
		h.writeReconcileError(w, err)
		return
	}
	w.Header().Set(menuSourceHeader, outcome.Source)
	if outcome.Record != nil {
		w.Header().Set(menuVersionHeader, strconv.FormatInt(outcome.Record.Version, 10))
	}
	response.JSON(w, http.StatusOK, outcome.Menu)
}

func (h *Handler) writeReconcileError(w http.ResponseWriter, err error) {
	h.logger().Error("catalog reconciliation failed", zap.Error(err))
	switch {
	case errors.Is(err, menu.ErrNoCategories):
		response.Failure(w, http.StatusInternalServerError, "No categories found", "Configure the menu categories before syncing the catalog")
	case errors.Is(err, menu.ErrNotConfigured):
		response.Failure(w, http.StatusInternalServerError, "Catalog sync is not configured", err.Error())
	case errors.Is(err, menu.ErrNoFallback):
		response.Failure(w, http.StatusInternalServerError, "Category mismatch and no saved menu", err.Error())
	default:
		response.Failure(w, http.StatusInternalServerError, "Failed to fetch catalog", err.Error())
	}
}

// PublicMenu serves GET /api/menu.
func (h *Handler) PublicMenu(w http.ResponseWriter, r *http.Request) {
	h.serveRecord(w, r, h.Menu.Latest)
}

// PublicFallbackMenu serves GET /api/fallback-menu.
func (h *Handler) PublicFallbackMenu(w http.ResponseWriter, r *http.Request) {
	h.serveRecord(w, r, h.Menu.Fallback)
}

func (h *Handler) serveRecord(w http.ResponseWriter, r *http.Request, load func(ctx context.Context) (store.MenuRecord, error)) {
	response.NoCache(w)
	record, err := load(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		response.Failure(w, http.StatusNotFound, "Menu not found", "")
		return
	}
	if err != nil {
		h.logger().Error("load menu failed", zap.Error(err))
		response.Failure(w, http.StatusInternalServerError, "Failed to fetch menu", err.Error())
		return
	}
	w.Header().Set(menuVersionHeader, strconv.FormatInt(record.Version, 10))
	w.Header().Set("Last-Modified", record.CreatedAt.UTC().Format(http.TimeFormat))
	response.JSON(w, http.StatusOK, record.Menu)
}

// PublicMenuPrint serves GET /api/menu/print, the latest menu as a PDF.
func (h *Handler) PublicMenuPrint(w http.ResponseWriter, r *http.Request) {
	record, err := h.Menu.Latest(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		response.Failure(w, http.StatusNotFound, "Menu not found", "")
		return
	}
	if err != nil {
		response.Failure(w, http.StatusInternalServerError, "Failed to fetch menu", err.Error())
		return
	}

	title := strings.TrimSpace(h.Config.MenuTitle)
	if title == "" {
		title = "Menu"
	}
	buf, err := menu.RenderPDF(record.Menu, title, h.venueTime(record.CreatedAt))
	if err != nil {
		h.logger().Error("render menu pdf failed", zap.Error(err))
		response.Failure(w, http.StatusInternalServerError, "Failed to render menu", err.Error())
		return
	}
	response.NoCache(w)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="menu.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) venueTime(t time.Time) time.Time {
	return utils.InTimezone(t, h.Config.VenueTimezone)
}
