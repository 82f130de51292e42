package httptransport

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
	"moderation-service/internal/service"
)

// maxBodyBytes leaves room for the JSON envelope around the content limit.
const maxBodyBytes = service.MaxContentBytes + 64<<10

type Handler struct {
	submissions *service.SubmissionService
	dashboard   *service.DashboardService
	health      *service.HealthService
}

func NewHandler(submissions *service.SubmissionService, dashboard *service.DashboardService, health *service.HealthService) *Handler {
	return &Handler{submissions: submissions, dashboard: dashboard, health: health}
}

type createAnalysisDTO struct {
	ContentType string `json:"contentType" example:"text"`
	Content     string `json:"content" example:"hello world"`
}

// CreateAnalysis godoc
// @Summary Submit content for analysis
// @Description Stores the submission as pending and starts background classification. Progress is pushed over /ws.
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body createAnalysisDTO true "content to analyze (contentType: text|image|video|audio)"
// @Success 201 {object} entity.Submission
// @Failure 400 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/analyses [post]
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var dto createAnalysisDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid analysis data")
		return
	}

	sub, err := h.submissions.Submit(r.Context(), service.SubmitRequest{
		ContentType: entity.ContentType(dto.ContentType),
		Content:     dto.Content,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeErr(w, http.StatusBadRequest, "Invalid analysis data")
			return
		}
		log.Printf("[http] create analysis error=%v", err)
		writeErr(w, http.StatusInternalServerError, "Failed to create analysis")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// RecentAnalyses godoc
// @Summary List recent analyses
// @Tags analyses
// @Produce json
// @Param limit query int false "max items (default 10, max 100)"
// @Success 200 {array} entity.Submission
// @Failure 500 {object} apiError
// @Router /api/analyses/recent [get]
func (h *Handler) RecentAnalyses(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.Recent(r.Context(), limitParam(r))
	if err != nil {
		log.Printf("[http] recent analyses error=%v", err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch analyses")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// GetAnalysis godoc
// @Summary Get analysis by id
// @Tags analyses
// @Produce json
// @Param id path string true "analysis id (uuid)"
// @Success 200 {object} entity.Submission
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/analyses/{id} [get]
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	sub, err := h.submissions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("[http] analysis_id=%s get error=%v", id, err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch analysis")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Queue godoc
// @Summary List pending analyses
// @Tags analyses
// @Produce json
// @Success 200 {array} entity.Submission
// @Failure 500 {object} apiError
// @Router /api/queue [get]
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.Queue(r.Context())
	if err != nil {
		log.Printf("[http] queue error=%v", err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch queue")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Stats godoc
// @Summary Current system stats
// @Tags dashboard
// @Produce json
// @Success 200 {object} entity.SystemStats
// @Failure 500 {object} apiError
// @Router /api/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.dashboard.Stats(r.Context())
	if err != nil {
		log.Printf("[http] stats error=%v", err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Activity godoc
// @Summary Recent activity log
// @Tags dashboard
// @Produce json
// @Param limit query int false "max items (default 10, max 100)"
// @Success 200 {array} entity.ActivityLog
// @Failure 500 {object} apiError
// @Router /api/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	logs, err := h.dashboard.RecentActivity(r.Context(), limitParam(r))
	if err != nil {
		log.Printf("[http] activity error=%v", err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Health godoc
// @Summary Service health
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.Health
// @Router /api/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health.Check(r.Context()))
}

// limitParam returns 0 (the service default) for a missing or malformed limit.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
