package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/jobs"
	"taproom-services/internal/menu"
	"taproom-services/internal/square"
	"taproom-services/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": []string{"application/json"}}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sampleMenu() catalog.MenuStructure {
	return catalog.MenuStructure{Sections: []catalog.MenuSection{
		{Name: "Draft", Items: []catalog.ProcessedItem{{ID: "i1", Name: "Pils", Brand: "Bierstadt", InStock: true}}},
		{Name: "Wine", Items: []catalog.ProcessedItem{}},
	}}
}

func TestCatalogSyncReturnsMenu(t *testing.T) {
	env := newTestEnv()
	record := store.MenuRecord{ID: "m1", Version: 7}
	env.menu.outcome = menu.Outcome{Menu: sampleMenu(), Source: menu.SourceLive, Record: &record}

	rec := serve(t, env.routes(), http.MethodGet, "/api/catalog", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "live", rec.Header().Get("X-Menu-Source"))
	assert.Equal(t, "7", rec.Header().Get("X-Menu-Version"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")

	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"Draft"`), strings.Index(body, `"Wine"`), "sections keep configured order")
	assert.NotContains(t, body, `"success"`)
}

func TestCatalogSyncFallbackIsOK(t *testing.T) {
	env := newTestEnv()
	env.menu.outcome = menu.Outcome{Menu: sampleMenu(), Source: menu.SourceFallback, Missing: []string{"IPA"}}

	rec := serve(t, env.routes(), http.MethodGet, "/api/catalog", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Header().Get("X-Menu-Source"))
}

func TestCatalogSyncErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
		details string
	}{
		{"no categories", menu.ErrNoCategories, "No categories found", "Configure the menu categories before syncing the catalog"},
		{"no fallback", fmt.Errorf("%w (missing: IPA)", menu.ErrNoFallback), "Category mismatch and no saved menu", "IPA"},
		{"upstream", errors.New("square request failed: 503 Service Unavailable"), "Failed to fetch catalog", "503"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.menu.reconcile = tc.err

			rec := serve(t, env.routes(), http.MethodGet, "/api/catalog", nil, nil)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tc.message, body["error"])
			assert.Contains(t, body["details"], tc.details)
		})
	}
}

func TestPublicMenu(t *testing.T) {
	env := newTestEnv()
	env.menu.latestErr = store.ErrNotFound
	rec := serve(t, env.routes(), http.MethodGet, "/api/menu", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Menu not found", decodeBody(t, rec)["error"])

	env.menu.latestErr = nil
	env.menu.latest = store.MenuRecord{Menu: sampleMenu(), Version: 3, CreatedAt: fixedNow}
	rec = serve(t, env.routes(), http.MethodGet, "/api/menu", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Menu-Version"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	body := decodeBody(t, rec)
	assert.Contains(t, body, "Draft")
}

func TestPublicFallbackMenuUsesFallbackStore(t *testing.T) {
	env := newTestEnv()
	env.menu.latestErr = errors.New("should not be read")
	env.menu.fallback = store.MenuRecord{Menu: sampleMenu(), Version: 1}

	rec := serve(t, env.routes(), http.MethodGet, "/api/fallback-menu", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")
}

func TestPublicMenuPrint(t *testing.T) {
	env := newTestEnv()
	env.menu.latest = store.MenuRecord{Menu: sampleMenu(), Version: 2, CreatedAt: fixedNow}

	rec := serve(t, env.routes(), http.MethodGet, "/api/menu/print", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func signWebhook(key, url string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(url))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSquareWebhook(t *testing.T) {
	const key = "whsec"
	const notifyURL = "https://taproom.example/api/square/webhook"
	catalogEvent := []byte(`{"merchant_id":"M1","type":"catalog.version.updated","event_id":"evt-1"}`)
	otherEvent := []byte(`{"merchant_id":"M1","type":"payment.created","event_id":"evt-2"}`)

	cases := []struct {
		name      string
		env       string
		key       string
		body      []byte
		signature string
		status    int
		queued    bool
	}{
		{"valid catalog event", "production", key, catalogEvent, signWebhook(key, notifyURL, catalogEvent), http.StatusOK, true},
		{"bad signature", "production", key, catalogEvent, signWebhook("other", notifyURL, catalogEvent), http.StatusForbidden, false},
		{"unrelated event", "production", key, otherEvent, signWebhook(key, notifyURL, otherEvent), http.StatusOK, false},
		{"unsigned in production", "production", "", catalogEvent, "", http.StatusForbidden, false},
		{"unsigned in development", "development", "", catalogEvent, "", http.StatusOK, true},
		{"malformed body", "development", "", []byte("{"), "", http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.handler.Config.Env = tc.env
			env.handler.Config.SquareWebhookSignatureKey = tc.key
			env.handler.Config.SquareWebhookURL = notifyURL

			header := jsonHeader()
			if tc.signature != "" {
				header.Set(square.SignatureHeader, tc.signature)
			}
			rec := serve(t, env.routes(), http.MethodPost, "/api/square/webhook", bytes.NewReader(tc.body), header)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())

			if !tc.queued {
				assert.Empty(t, env.jobs.kinds())
				return
			}
			require.Equal(t, []string{jobs.KindCatalogRefresh}, env.jobs.kinds())
			var payload jobs.RefreshPayload
			require.NoError(t, json.Unmarshal(env.jobs.jobs[0].Payload, &payload))
			assert.Equal(t, "evt-1", payload.EventID)
			assert.Equal(t, square.EventCatalogVersionUpdated, payload.Reason)
		})
	}
}

func TestWebhookURLFromRequest(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "http://internal:8080/api/square/webhook", nil)
	req.Host = "taproom.example"
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := h.webhookURL(req); got != "https://taproom.example/api/square/webhook" {
		t.Fatalf("unexpected webhook url %q", got)
	}
}

func TestCronCatalogSyncEnqueues(t *testing.T) {
	env := newTestEnv()
	rec := serve(t, env.routes(), http.MethodPost, "/api/cron/catalog-sync", nil, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{jobs.KindCatalogRefresh}, env.jobs.kinds())

	env.jobs.err = errors.New("broker down")
	rec = serve(t, env.routes(), http.MethodPost, "/api/cron/catalog-sync", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminCategories(t *testing.T) {
	env := newTestEnv()
	env.menu.catErr = store.ErrNotFound
	rec := serve(t, env.routes(), http.MethodGet, "/api/admin/categories", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["parentCategories"])

	env.menu.catErr = nil
	body := `{"parentCategories":["Draft","Canned / Bottled"],"childCategories":["IPA"],"parentName":"Canned / Bottled"}`
	rec = serve(t, env.routes(), http.MethodPut, "/api/admin/categories", strings.NewReader(body), jsonHeader())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.menu.saved)
	assert.Equal(t, []string{"IPA"}, env.menu.saved.ChildCategories)

	env.menu.setErr = fmt.Errorf("%w: %v", menu.ErrInvalidCategories, "at least one parent category is required")
	rec = serve(t, env.routes(), http.MethodPut, "/api/admin/categories", strings.NewReader(`{"parentCategories":[]}`), jsonHeader())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "at least one parent category is required", decodeBody(t, rec)["message"])

	rec = serve(t, env.routes(), http.MethodPut, "/api/admin/categories", strings.NewReader(`{"unknown":1}`), jsonHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSquareCategories(t *testing.T) {
	env := newTestEnv()
	env.handler.Square = fakeSquare{objects: []square.CatalogObject{
		{ID: "C1", Type: square.ObjectTypeCategory, CategoryData: &square.CategoryData{Name: "Draft"}},
		{ID: "C2", Type: square.ObjectTypeCategory},
	}}
	rec := serve(t, env.routes(), http.MethodGet, "/api/admin/categories/square", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Draft", data[0].(map[string]any)["name"])

	env.handler.Square = fakeSquare{err: &square.APIError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}}
	rec = serve(t, env.routes(), http.MethodGet, "/api/admin/categories/square", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminMenuRefresh(t *testing.T) {
	env := newTestEnv()
	record := store.MenuRecord{Version: 4, CreatedAt: time.Now()}
	env.menu.outcome = menu.Outcome{Menu: sampleMenu(), Source: menu.SourceLive, Record: &record}

	rec := serve(t, env.routes(), http.MethodPost, "/api/admin/menu/refresh", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 4, data["version"])
	assert.EqualValues(t, 1, data["items"])
	assert.Equal(t, []any{"Draft", "Wine"}, data["categories"])

	env.menu.reconcile = menu.ErrNoCategories
	rec = serve(t, env.routes(), http.MethodPost, "/api/admin/menu/refresh", nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_CATEGORIES", decodeBody(t, rec)["error"])
}
