package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "whizzcli/internal/errors"
	"whizzcli/internal/validation"
)

// ConversionHandler handles conversion-related HTTP requests.
type ConversionHandler struct {
	service   *ConversionService
	validator *validation.RequestValidator
	logger    *slog.Logger
}

// NewConversionHandler creates a new conversion handler.
func NewConversionHandler(service *ConversionService, validator *validation.RequestValidator, logger *slog.Logger) *ConversionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With(slog.String("handler", "conversion")),
	}
}

// Routes returns the conversion routes.
func (h *ConversionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateConversion)
	r.Get("/", h.ListConversions)
	r.Get("/{id}", h.GetConversion)

	return r
}

// CreateConversion handles POST /api/conversions.
func (h *ConversionHandler) CreateConversion(w http.ResponseWriter, r *http.Request) {
	var req validation.ConversionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}

	if fieldErrors := h.validator.ValidateRequest(&req); len(fieldErrors) > 0 {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.NewValidationErrors(fieldErrors)))
		return
	}

	job, err := h.service.StartConversion(&req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to start conversion",
			slog.String("survey_file", req.SurveyFile),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ConversionError(err)))
		return
	}

	h.logger.InfoContext(r.Context(), "Conversion started",
		slog.String("job_id", job.ID),
		slog.String("survey_file", job.SurveyFile))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, job)
}

// GetConversion handles GET /api/conversions/{id}.
func (h *ConversionHandler) GetConversion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := h.service.GetJob(id)
	if !ok {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrConversionNotFound))
		return
	}
	render.JSON(w, r, job)
}

// ListConversions handles GET /api/conversions.
func (h *ConversionHandler) ListConversions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"conversions": h.service.ListJobs(),
	})
}
