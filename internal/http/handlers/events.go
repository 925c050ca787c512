package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taproom-services/internal/media"
	"taproom-services/internal/storage"
	"taproom-services/internal/store"
	"taproom-services/internal/utils"
	"taproom-services/internal/validate"
	"taproom-services/pkg/response"

	"go.uber.org/zap"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

type eventPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	TicketURL   string     `json:"ticketUrl"`
	Published   bool       `json:"published"`
}

func (p eventPayload) validate() (store.Event, validate.Errors) {
	errs := validate.Errors{}
	var event store.Event
	var ok bool

	if event.Title, ok = validate.Text(p.Title, 140); !ok {
		errs.Add("title", "Title is required (max 140 characters)")
	}
	if event.Description, ok = validate.OptionalText(p.Description, 5000); !ok {
		errs.Add("description", "Description is too long")
	}
	if event.Location, ok = validate.OptionalText(p.Location, 200); !ok {
		errs.Add("location", "Location is too long")
	}
	if p.StartsAt == nil || p.StartsAt.IsZero() {
		errs.Add("startsAt", "Start time is required")
	} else {
		event.StartsAt = p.StartsAt.UTC()
	}
	if p.EndsAt != nil && !p.EndsAt.IsZero() {
		end := p.EndsAt.UTC()
		if p.StartsAt != nil && !end.After(event.StartsAt) {
			errs.Add("endsAt", "End time must be after the start time")
		}
		event.EndsAt = &end
	}
	if strings.TrimSpace(p.TicketURL) != "" {
		if event.TicketURL, ok = validate.URL(p.TicketURL); !ok {
			errs.Add("ticketUrl", "Ticket link must be an http(s) URL")
		}
	}
	event.Published = p.Published
	return event, errs
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates in the venue's
// timezone.
func (h *Handler) parseTimeParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := utils.ParseDateInTimezone(raw, h.Config.VenueTimezone)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) eventFilter(r *http.Request, includeDrafts bool) (store.EventFilter, bool) {
	q := r.URL.Query()
	from, err := h.parseTimeParam(q.Get("from"))
	if err != nil {
		return store.EventFilter{}, false
	}
	to, err := h.parseTimeParam(q.Get("to"))
	if err != nil {
		return store.EventFilter{}, false
	}
	return store.EventFilter{
		From:          from,
		To:            to,
		IncludeDrafts: includeDrafts,
		Limit:         validate.Limit(q.Get("limit"), defaultEventLimit, maxEventLimit),
	}, true
}

// PublicEvents serves GET /api/events. Without from, only events that have
// not ended yet are listed.
func (h *Handler) PublicEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.eventFilter(r, false)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "from and to must be dates (YYYY-MM-DD) or RFC 3339 times")
		return
	}
	if filter.From == nil {
		from := h.now().Add(-6 * time.Hour)
		filter.From = &from
	}
	events, err := h.Stores.Events.List(r.Context(), filter)
	if err != nil {
		h.logger().Error("list events failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}
	response.Success(w, nonNilEvents(events))
}

func (h *Handler) PublicEventGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.Stores.Events.Get(r.Context(), readPathString(r, "id"))
	if err == nil && !event.Published {
		err = store.ErrNotFound
	}
	if writeStoreError(w, err, "Event") {
		return
	}
	response.Success(w, event)
}

func (h *Handler) AdminEventsList(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.eventFilter(r, true)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "from and to must be dates (YYYY-MM-DD) or RFC 3339 times")
		return
	}
	events, err := h.Stores.Events.List(r.Context(), filter)
	if err != nil {
		h.logger().Error("list events failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}
	response.Success(w, nonNilEvents(events))
}

func (h *Handler) AdminEventCreate(w http.ResponseWriter, r *http.Request) {
	var body eventPayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	event, errs := body.validate()
	if !errs.Empty() {
		response.Invalid(w, errs)
		return
	}
	created, err := h.Stores.Events.Create(r.Context(), event)
	if err != nil {
		h.logger().Error("create event failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create event")
		return
	}
	response.Created(w, created)
}

func (h *Handler) AdminEventUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, err := h.Stores.Events.Get(ctx, readPathString(r, "id"))
	if writeStoreError(w, err, "Event") {
		return
	}
	var body eventPayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	event, errs := body.validate()
	if !errs.Empty() {
		response.Invalid(w, errs)
		return
	}
	event.ID = existing.ID
	event.FlyerURL = existing.FlyerURL
	event.FlyerThumbURL = existing.FlyerThumbURL
	event.CreatedAt = existing.CreatedAt

	updated, err := h.Stores.Events.Update(ctx, event)
	if writeStoreError(w, err, "Event") {
		return
	}
	response.Success(w, updated)
}

func (h *Handler) AdminEventDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, err := h.Stores.Events.Get(ctx, readPathString(r, "id"))
	if writeStoreError(w, err, "Event") {
		return
	}
	if writeStoreError(w, h.Stores.Events.Delete(ctx, existing.ID), "Event") {
		return
	}
	h.deleteObjects(r, existing.FlyerURL, existing.FlyerThumbURL)
	response.Success(w, map[string]any{"id": existing.ID})
}

// AdminEventFlyer serves POST /api/admin/events/{id}/flyer (multipart "file").
func (h *Handler) AdminEventFlyer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Storage == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED", "File storage is not configured")
		return
	}
	event, err := h.Stores.Events.Get(ctx, readPathString(r, "id"))
	if writeStoreError(w, err, "Event") {
		return
	}
	if !parseMultipart(w, r, h.Config.MaxFileSizeBytes) {
		return
	}
	data, _, ferr := readFileBytes(r, "file", allowImage, h.Config.MaxFileSizeBytes)
	if ferr != nil {
		writeFileError(w, ferr)
		return
	}

	flyer, err := media.ProcessFlyer(data)
	if err != nil {
		status, code := http.StatusInternalServerError, "IMAGE_PROCESSING_FAILED"
		if errors.Is(err, media.ErrUnsupportedImage) {
			status, code = http.StatusBadRequest, "INVALID_FILE_TYPE"
		}
		h.logger().Warn("process flyer failed", zap.String("eventId", event.ID), zap.Error(err))
		response.Error(w, status, code, "Could not process the image")
		return
	}

	stamp := strconv.FormatInt(h.now().UnixMilli(), 10)
	fullURL, err := h.Storage.PutObject(ctx, storage.FlyerKey(event.ID, "full", stamp), flyer.Full, "image/jpeg")
	if err != nil {
		h.logger().Error("upload flyer failed", zap.Error(err))
		response.Error(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload flyer")
		return
	}
	thumbURL, err := h.Storage.PutObject(ctx, storage.FlyerKey(event.ID, "thumb", stamp), flyer.Thumb, "image/jpeg")
	if err != nil {
		h.logger().Error("upload flyer thumbnail failed", zap.Error(err))
		h.deleteObjects(r, fullURL)
		response.Error(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload flyer")
		return
	}

	oldFull, oldThumb := event.FlyerURL, event.FlyerThumbURL
	event.FlyerURL, event.FlyerThumbURL = fullURL, thumbURL
	updated, err := h.Stores.Events.Update(ctx, event)
	if writeStoreError(w, err, "Event") {
		h.deleteObjects(r, fullURL, thumbURL)
		return
	}
	h.deleteObjects(r, oldFull, oldThumb)
	response.Success(w, map[string]any{
		"event":  updated,
		"width":  flyer.Width,
		"height": flyer.Height,
	})
}

// deleteObjects removes replaced uploads. Failures only leave orphans behind.
func (h *Handler) deleteObjects(r *http.Request, urls ...string) {
	if h.Storage == nil {
		return
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if err := h.Storage.DeleteURL(r.Context(), u); err != nil && !errors.Is(err, storage.ErrUnmanagedURL) {
			h.logger().Warn("delete object failed", zap.String("url", u), zap.Error(err))
		}
	}
}

func nonNilEvents(events []store.Event) []store.Event {
	if events == nil {
		return []store.Event{}
	}
	return events
}
