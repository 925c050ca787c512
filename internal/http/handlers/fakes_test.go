package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/config"
	"taproom-services/internal/jobs"
	"taproom-services/internal/menu"
	"taproom-services/internal/shopify"
	"taproom-services/internal/square"
	"taproom-services/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fakeMenu struct {
	outcome    menu.Outcome
	reconcile  error
	latest     store.MenuRecord
	latestErr  error
	fallback   store.MenuRecord
	fallErr    error
	categories catalog.ExpectedCategories
	catErr     error
	setErr     error
	saved      *catalog.ExpectedCategories
}

func (f *fakeMenu) Reconcile(context.Context) (menu.Outcome, error) { return f.outcome, f.reconcile }
func (f *fakeMenu) Latest(context.Context) (store.MenuRecord, error) { return f.latest, f.latestErr }
func (f *fakeMenu) Fallback(context.Context) (store.MenuRecord, error) {
	return f.fallback, f.fallErr
}
func (f *fakeMenu) Categories(context.Context) (catalog.ExpectedCategories, error) {
	return f.categories, f.catErr
}
func (f *fakeMenu) SetCategories(_ context.Context, expected catalog.ExpectedCategories) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.saved = &expected
	f.categories = expected
	return nil
}

type fakeSquare struct {
	objects []square.CatalogObject
	err     error
}

func (f fakeSquare) ListCategories(context.Context) ([]square.CatalogObject, error) {
	return f.objects, f.err
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, job jobs.Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, job)
	return nil
}

func (e *recordingEnqueuer) kinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.jobs))
	for _, j := range e.jobs {
		out = append(out, j.Kind)
	}
	return out
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string
	putErr  error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) PutObject(_ context.Context, key string, body []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.objects[key] = body
	m.types[key] = contentType
	return "https://cdn.example/" + key, nil
}

func (m *memoryObjects) DeleteURL(_ context.Context, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, raw)
	return nil
}

func (m *memoryObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type memoryEvents struct {
	mu         sync.Mutex
	seq        int
	events     map[string]store.Event
	lastFilter store.EventFilter
}

func newMemoryEvents(events ...store.Event) *memoryEvents {
	m := &memoryEvents{events: map[string]store.Event{}}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *memoryEvents) List(_ context.Context, filter store.EventFilter) ([]store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	var out []store.Event
	for _, e := range m.events {
		if !filter.IncludeDrafts && !e.Published {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *memoryEvents) Get(_ context.Context, id string) (store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return store.Event{}, store.ErrNotFound
	}
	return e, nil
}

func (m *memoryEvents) Create(_ context.Context, event store.Event) (store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	event.ID = "event-" + strconv.Itoa(m.seq)
	m.events[event.ID] = event
	return event, nil
}

func (m *memoryEvents) Update(_ context.Context, event store.Event) (store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.ID]; !ok {
		return store.Event{}, store.ErrNotFound
	}
	m.events[event.ID] = event
	return event, nil
}

func (m *memoryEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

type memoryMessages struct {
	mu       sync.Mutex
	messages []store.Message
}

func (m *memoryMessages) List(_ context.Context, filter store.MessageFilter) ([]store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Message
	for _, msg := range m.messages {
		if filter.UnreadOnly && msg.Read {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m *memoryMessages) Get(_ context.Context, id string) (store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return store.Message{}, store.ErrNotFound
}

func (m *memoryMessages) Create(_ context.Context, msg store.Message) (store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = "msg-" + strconv.Itoa(len(m.messages)+1)
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memoryMessages) MarkRead(_ context.Context, id string) (store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Read = true
			return m.messages[i], nil
		}
	}
	return store.Message{}, store.ErrNotFound
}

func (m *memoryMessages) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memoryApplications struct {
	mu   sync.Mutex
	apps []store.JobApplication
}

func (m *memoryApplications) List(_ context.Context, limit int) ([]store.JobApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.JobApplication(nil), m.apps...), nil
}

func (m *memoryApplications) Get(_ context.Context, id string) (store.JobApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID == id {
			return a, nil
		}
	}
	return store.JobApplication{}, store.ErrNotFound
}

func (m *memoryApplications) Create(_ context.Context, app store.JobApplication) (store.JobApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps = append(m.apps, app)
	return app, nil
}

type fakeShop struct {
	configured bool
	cart       shopify.Cart
	err        error
	lastCartID string
	lastLines  []shopify.CartLineInput
}

func (f *fakeShop) Configured() bool { return f.configured }
func (f *fakeShop) Products(context.Context, int, string) (shopify.ProductPage, error) {
	return shopify.ProductPage{}, f.err
}
func (f *fakeShop) Product(context.Context, string) (shopify.Product, error) {
	return shopify.Product{}, f.err
}
func (f *fakeShop) CartCreate(_ context.Context, lines []shopify.CartLineInput) (shopify.Cart, error) {
	f.lastLines = lines
	return f.cart, f.err
}
func (f *fakeShop) Cart(_ context.Context, id string) (shopify.Cart, error) {
	f.lastCartID = id
	return f.cart, f.err
}
func (f *fakeShop) CartLinesAdd(_ context.Context, id string, lines []shopify.CartLineInput) (shopify.Cart, error) {
	f.lastCartID, f.lastLines = id, lines
	return f.cart, f.err
}
func (f *fakeShop) CartLinesUpdate(_ context.Context, id string, _ []shopify.CartLineUpdate) (shopify.Cart, error) {
	f.lastCartID = id
	return f.cart, f.err
}
func (f *fakeShop) CartLinesRemove(_ context.Context, id string, _ []string) (shopify.Cart, error) {
	f.lastCartID = id
	return f.cart, f.err
}

var fixedNow = time.Date(2026, 6, 12, 20, 0, 0, 0, time.UTC)

type testEnv struct {
	handler  *Handler
	menu     *fakeMenu
	jobs     *recordingEnqueuer
	objects  *memoryObjects
	events   *memoryEvents
	messages *memoryMessages
	apps     *memoryApplications
	shop     *fakeShop
}

func newTestEnv() *testEnv {
	env := &testEnv{
		menu:     &fakeMenu{},
		jobs:     &recordingEnqueuer{},
		objects:  newMemoryObjects(),
		events:   newMemoryEvents(),
		messages: &memoryMessages{},
		apps:     &memoryApplications{},
		shop:     &fakeShop{configured: true},
	}
	env.handler = &Handler{
		Logger: zap.NewNop(),
		Config: config.Config{
			Env:              "test",
			MaxFileSizeBytes: 2 << 20,
			MenuTitle:        "Taproom",
			VenueTimezone:    "America/New_York",
		},
		Menu:    env.menu,
		Square:  fakeSquare{},
		Jobs:    env.jobs,
		Storage: env.objects,
		Shop:    env.shop,
		Stores: store.Stores{
			Events:       env.events,
			Messages:     env.messages,
			Applications: env.apps,
		},
		Now: func() time.Time { return fixedNow },
	}
	return env
}

// routes mounts the handlers the way the API router does, minus auth.
func (env *testEnv) routes() http.Handler {
	h := env.handler
	r := chi.NewRouter()
	r.Get("/api/catalog", h.CatalogSync)
	r.Post("/api/square/webhook", h.SquareWebhook)
	r.Get("/api/menu", h.PublicMenu)
	r.Get("/api/menu/print", h.PublicMenuPrint)
	r.Get("/api/fallback-menu", h.PublicFallbackMenu)
	r.Get("/api/events", h.PublicEvents)
	r.Get("/api/events/{id}", h.PublicEventGet)
	r.Post("/api/contact", h.PublicContact)
	r.Post("/api/jobs/apply", h.PublicJobApply)
	r.Get("/api/shop/products", h.ShopProducts)
	r.Post("/api/shop/cart", h.ShopCartCreate)
	r.Get("/api/shop/cart/{cartId}", h.ShopCartGet)
	r.Get("/api/admin/categories", h.AdminCategoriesGet)
	r.Put("/api/admin/categories", h.AdminCategoriesPut)
	r.Get("/api/admin/categories/square", h.AdminSquareCategories)
	r.Post("/api/admin/menu/refresh", h.AdminMenuRefresh)
	r.Get("/api/admin/events", h.AdminEventsList)
	r.Post("/api/admin/events", h.AdminEventCreate)
	r.Put("/api/admin/events/{id}", h.AdminEventUpdate)
	r.Delete("/api/admin/events/{id}", h.AdminEventDelete)
	r.Post("/api/admin/events/{id}/flyer", h.AdminEventFlyer)
	r.Get("/api/admin/messages", h.AdminMessagesList)
	r.Patch("/api/admin/messages/{id}/read", h.AdminMessageRead)
	r.Delete("/api/admin/messages/{id}", h.AdminMessageDelete)
	r.Post("/api/cron/catalog-sync", h.CronCatalogSync)
	return r
}
