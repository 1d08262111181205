// Package http exposes the pipeline's results to the dashboard as a JSON
// API. The dashboard is an external collaborator; it sends a data path,
// status filter and period tuples, and renders whatever comes back.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/period"
	"salespulse/internal/sales"
	"salespulse/internal/services"
)

// AnalyticsServiceInterface is the service surface the handler depends on.
type AnalyticsServiceInterface interface {
	Compare(ctx context.Context, req services.CompareRequest) (*services.CompareResult, error)
	Summary(ctx context.Context, req services.SummaryRequest) (*services.SummaryResult, error)
	DatasetDistributions(ctx context.Context, dataDir string) (*services.Distributions, error)
}

// AnalyticsHandler handles analytics HTTP requests.
type AnalyticsHandler struct {
	service  AnalyticsServiceInterface
	logger   *slog.Logger
	validate *validator.Validate
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service AnalyticsServiceInterface, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "analytics_handler")),
		validate: validator.New(),
	}
}

// Routes returns the analytics routes.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Post("/compare", h.Compare)
	r.Get("/categories", h.GetCategories)
	r.Get("/states", h.GetStates)
	r.Get("/monthly", h.GetMonthly)
	r.Get("/distributions", h.GetDistributions)

	return r
}

// periodPayload is one inclusive year-month range in request bodies.
type periodPayload struct {
	StartYear  int `json:"start_year" validate:"required,gte=1900,lte=2200"`
	StartMonth int `json:"start_month" validate:"required,gte=1,lte=12"`
	EndYear    int `json:"end_year" validate:"required,gte=1900,lte=2200"`
	EndMonth   int `json:"end_month" validate:"required,gte=1,lte=12"`
}

func (p periodPayload) toRange() (period.Range, error) {
	return period.NewRange(p.StartYear, p.StartMonth, p.EndYear, p.EndMonth)
}

// comparePayload is the POST /compare request body.
type comparePayload struct {
	Statuses   []string      `json:"statuses"`
	Current    periodPayload `json:"current" validate:"required"`
	Comparison periodPayload `json:"comparison" validate:"required"`
}

// Compare handles POST /api/analytics/compare.
func (h *AnalyticsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var payload comparePayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	current, err := payload.Current.toRange()
	if err != nil {
		h.renderError(w, r, h.mapError(err))
		return
	}
	comparison, err := payload.Comparison.toRange()
	if err != nil {
		h.renderError(w, r, h.mapError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "comparing periods",
		slog.String("request_id", reqID),
		slog.String("current", current.String()),
		slog.String("comparison", comparison.String()),
	)

	result, err := h.service.Compare(r.Context(), services.CompareRequest{
		Statuses:   statusFilter(payload.Statuses),
		Current:    current,
		Comparison: comparison,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "comparison failed",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		h.renderError(w, r, h.mapError(err))
		return
	}

	render.JSON(w, r, result)
}

// GetSummary handles GET /api/analytics/summary. The period comes from query
// parameters: start_year, start_month, end_year, end_month; statuses is an
// optional repeated parameter.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	p, apiErr := periodFromQuery(r)
	if apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	h.logger.InfoContext(r.Context(), "fetching summary",
		slog.String("request_id", reqID),
		slog.String("period", p.String()),
	)

	result, err := h.service.Summary(r.Context(), services.SummaryRequest{
		Statuses: statusFilter(r.URL.Query()["status"]),
		Period:   p,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "summary failed",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		h.renderError(w, r, h.mapError(err))
		return
	}

	render.JSON(w, r, result)
}

// GetCategories handles GET /api/analytics/categories. It takes the same
// query parameters as the summary endpoint and returns only the category
// ranking.
func (h *AnalyticsHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	result, ok := h.summaryFromQuery(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result.Categories)
}

// GetStates handles GET /api/analytics/states.
func (h *AnalyticsHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	result, ok := h.summaryFromQuery(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result.States)
}

// GetMonthly handles GET /api/analytics/monthly.
func (h *AnalyticsHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	result, ok := h.summaryFromQuery(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result.Monthly)
}

// summaryFromQuery runs a summary for the period and status filter given in
// query parameters, rendering the error itself when the request or the run
// fails.
func (h *AnalyticsHandler) summaryFromQuery(w http.ResponseWriter, r *http.Request) (*services.SummaryResult, bool) {
	p, apiErr := periodFromQuery(r)
	if apiErr != nil {
		h.renderError(w, r, apiErr)
		return nil, false
	}

	result, err := h.service.Summary(r.Context(), services.SummaryRequest{
		Statuses: statusFilter(r.URL.Query()["status"]),
		Period:   p,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "summary failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		h.renderError(w, r, h.mapError(err))
		return nil, false
	}
	return result, true
}

// GetDistributions handles GET /api/analytics/distributions.
func (h *AnalyticsHandler) GetDistributions(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DatasetDistributions(r.Context(), "")
	if err != nil {
		h.renderError(w, r, h.mapError(err))
		return
	}
	render.JSON(w, r, result)
}

func periodFromQuery(r *http.Request) (period.Range, *apperrors.APIError) {
	params := []string{"start_year", "start_month", "end_year", "end_month"}
	values := make([]int, len(params))
	for i, name := range params {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return period.Range{}, apperrors.ErrValidation(name, "required query parameter is missing")
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return period.Range{}, apperrors.ErrValidation(name, "must be an integer")
		}
		values[i] = n
	}

	p, err := period.NewRange(values[0], values[1], values[2], values[3])
	if err != nil {
		return period.Range{}, apperrors.NewWithDetails(
			http.StatusBadRequest, string(apperrors.ErrTypeRange), err.Error(), nil)
	}
	return p, nil
}

func statusFilter(statuses []string) sales.StatusFilter {
	if len(statuses) == 0 {
		return sales.DeliveredOnly()
	}
	if len(statuses) == 1 && statuses[0] == "all" {
		return sales.AllStatuses()
	}
	return sales.Statuses(statuses...)
}

func (h *AnalyticsHandler) mapError(err error) *apperrors.APIError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return apperrors.FromAppError(appErr)
	}
	return apperrors.ErrInternalServer
}

func (h *AnalyticsHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	if err := render.Render(w, r, apiErr); err != nil {
		h.logger.Error("failed to render error response", slog.String("error", err.Error()))
	}
}
