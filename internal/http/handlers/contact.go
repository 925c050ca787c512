package handlers

import (
	"net/http"
	"strings"

	"taproom-services/internal/jobs"
	"taproom-services/internal/storage"
	"taproom-services/internal/store"
	"taproom-services/internal/validate"
	"taproom-services/pkg/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (p contactPayload) validate() (store.Message, validate.Errors) {
	errs := validate.Errors{}
	var msg store.Message
	var ok bool
	if msg.Name, ok = validate.Name(p.Name); !ok {
		errs.Add("name", "Name is required")
	}
	if msg.Email, ok = validate.Email(p.Email); !ok {
		errs.Add("email", "A valid email address is required")
	}
	if strings.TrimSpace(p.Phone) != "" {
		if msg.Phone, ok = validate.Phone(p.Phone); !ok {
			errs.Add("phone", "Phone number is not valid")
		}
	}
	if msg.Subject, ok = validate.OptionalText(p.Subject, 200); !ok {
		errs.Add("subject", "Subject is too long")
	}
	if msg.Body, ok = validate.Text(p.Message, 5000); !ok {
		errs.Add("message", "Message is required (max 5000 characters)")
	}
	return msg, errs
}

// PublicContact serves POST /api/contact.
func (h *Handler) PublicContact(w http.ResponseWriter, r *http.Request) {
	var body contactPayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	msg, errs := body.validate()
	if !errs.Empty() {
		response.Invalid(w, errs)
		return
	}
	msg.CreatedAt = h.now().UTC()

	saved, err := h.Stores.Messages.Create(r.Context(), msg)
	if err != nil {
		h.logger().Error("save contact message failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to send message")
		return
	}
	h.enqueueNotification(r, jobs.ContactKinds, saved, saved.ID)
	response.Created(w, map[string]any{"id": saved.ID})
}

// PublicJobApply serves POST /api/jobs/apply (multipart, optional PDF
// "resume").
func (h *Handler) PublicJobApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseMultipart(w, r, h.Config.MaxFileSizeBytes) {
		return
	}

	errs := validate.Errors{}
	var app store.JobApplication
	var ok bool
	if app.Name, ok = validate.Name(r.FormValue("name")); !ok {
		errs.Add("name", "Name is required")
	}
	if app.Email, ok = validate.Email(r.FormValue("email")); !ok {
		errs.Add("email", "A valid email address is required")
	}
	if app.Phone, ok = validate.Phone(r.FormValue("phone")); !ok {
		errs.Add("phone", "A valid phone number is required")
	}
	if app.Position, ok = validate.Text(r.FormValue("position"), 100); !ok {
		errs.Add("position", "Position is required")
	}
	if app.Availability, ok = validate.OptionalText(r.FormValue("availability"), 1000); !ok {
		errs.Add("availability", "Availability is too long")
	}
	if app.Experience, ok = validate.OptionalText(r.FormValue("experience"), 5000); !ok {
		errs.Add("experience", "Experience is too long")
	}
	if !errs.Empty() {
		response.Invalid(w, errs)
		return
	}

	var resume []byte
	if r.MultipartForm != nil && len(r.MultipartForm.File["resume"]) > 0 {
		data, _, ferr := readFileBytes(r, "resume", allowPDF, h.Config.MaxFileSizeBytes)
		if ferr != nil {
			if ferr.Kind == fileReadErrInvalidType {
				ferr.Message = "Résumé must be a PDF"
			}
			writeFileError(w, ferr)
			return
		}
		if h.Storage == nil {
			response.Error(w, http.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED", "Résumé uploads are not available")
			return
		}
		resume = data
	}

	app.ID = uuid.NewString()
	if resume != nil {
		url, err := h.Storage.PutObject(ctx, storage.ResumeKey(app.ID), resume, "application/pdf")
		if err != nil {
			h.logger().Error("upload resume failed", zap.String("applicationId", app.ID), zap.Error(err))
			response.Error(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload résumé")
			return
		}
		app.ResumeURL = url
	}

	app.CreatedAt = h.now().UTC()
	saved, err := h.Stores.Applications.Create(ctx, app)
	if err != nil {
		h.logger().Error("save job application failed", zap.Error(err))
		h.deleteObjects(r, app.ResumeURL)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit application")
		return
	}

	h.enqueueNotification(r, jobs.ApplicationKinds, saved, saved.ID)
	response.Created(w, map[string]any{"id": saved.ID})
}

// enqueueNotification queues one staff notification job per channel for a
// stored submission. The submission is already saved, so failures are
// logged only.
func (h *Handler) enqueueNotification(r *http.Request, kinds []string, payload any, id string) {
	if h.Jobs == nil {
		return
	}
	for _, kind := range kinds {
		if err := jobs.Enqueue(r.Context(), h.Jobs, kind, payload); err != nil {
			h.logger().Error("enqueue notification failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		}
	}
}

// AdminMessagesList serves GET /api/admin/messages?unread=true&limit=.
func (h *Handler) AdminMessagesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.MessageFilter{
		UnreadOnly: strings.EqualFold(q.Get("unread"), "true"),
		Limit:      validate.Limit(q.Get("limit"), 50, 200),
	}
	messages, err := h.Stores.Messages.List(r.Context(), filter)
	if err != nil {
		h.logger().Error("list messages failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load messages")
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	response.Success(w, messages)
}

func (h *Handler) AdminMessageRead(w http.ResponseWriter, r *http.Request) {
	msg, err := h.Stores.Messages.MarkRead(r.Context(), readPathString(r, "id"))
	if writeStoreError(w, err, "Message") {
		return
	}
	response.Success(w, msg)
}

func (h *Handler) AdminMessageDelete(w http.ResponseWriter, r *http.Request) {
	id := readPathString(r, "id")
	if writeStoreError(w, h.Stores.Messages.Delete(r.Context(), id), "Message") {
		return
	}
	response.Success(w, map[string]any{"id": id})
}

// AdminApplicationsList serves GET /api/admin/applications.
func (h *Handler) AdminApplicationsList(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Stores.Applications.List(r.Context(), validate.Limit(r.URL.Query().Get("limit"), 50, 200))
	if err != nil {
		h.logger().Error("list applications failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load applications")
		return
	}
	if apps == nil {
		apps = []store.JobApplication{}
	}
	response.Success(w, apps)
}

func (h *Handler) AdminApplicationGet(w http.ResponseWriter, r *http.Request) {
	app, err := h.Stores.Applications.Get(r.Context(), readPathString(r, "id"))
	if writeStoreError(w, err, "Application") {
		return
	}
	response.Success(w, app)
}
