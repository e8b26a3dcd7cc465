package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/recruitops/campaign-insight/internal/cache"
	"github.com/recruitops/campaign-insight/internal/dataset"
	"github.com/recruitops/campaign-insight/internal/forecast"
	"github.com/recruitops/campaign-insight/internal/quality"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	estimator *forecast.Service
	store     *dataset.Store
	cache     *cache.Cache
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(estimator *forecast.Service, store *dataset.Store) *Handlers {
	return &Handlers{
		estimator: estimator,
		store:     store,
		cache:     &cache.Cache{},
		startTime: time.Now(),
	}
}

// SetCache sets the response cache.
func (h *Handlers) SetCache(c *cache.Cache) {
	h.cache = c
}

// HealthCheck reports process liveness and dataset freshness.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"uptime":          time.Since(h.startTime).Round(time.Second).String(),
		"events_loaded":   len(snap.Events),
		"regimes_loaded":  len(snap.Regimes),
		"reference_month": snap.ReferenceMonth.Format("2006-01"),
		"loaded_at":       snap.LoadedAt.Format(time.RFC3339),
	})
}

// EstimateCPAS forecasts CPAS and apply-starts for a budget and window.
//
//	GET /api/estimates/cpas?budget=200000&duration=4&as_goal=5000&start_date=2025-06-01&end_date=2025-06-28
func (h *Handlers) EstimateCPAS(w http.ResponseWriter, r *http.Request) {
	budget, err := requiredFloat(r, "budget")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	duration, err := optionalInt(r, "duration", 1)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := forecast.CPASRequest{
		Budget:        budget,
		DurationWeeks: duration,
	}
	if req.StartDate, err = optionalDate(r, "start_date"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EndDate, err = optionalDate(r, "end_date"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ApplyStartGoal, err = optionalFloatPtr(r, "as_goal"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.StartDate == nil) != (req.EndDate == nil) {
		respondError(w, http.StatusBadRequest, "start_date and end_date must be supplied together")
		return
	}
	if req.StartDate != nil && req.EndDate.Before(*req.StartDate) {
		respondError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	est, err := h.estimator.EstimateCPAS(req)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("estimation failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, est)
}

// DeliveryBoundaries returns best-case and worst-case delivery for a budget.
//
//	GET /api/estimates/boundaries?budget=100000&duration_days=14
func (h *Handlers) DeliveryBoundaries(w http.ResponseWriter, r *http.Request) {
	budget, err := requiredFloat(r, "budget")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	durationDays, err := optionalInt(r, "duration_days", 7)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.estimator.EstimateBoundaries(budget, durationDays)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("boundary estimation failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// qualityScoresKey is the cache key for the scored job list; it only
// changes when the dataset is reloaded.
var qualityScoresKey = cache.Key("quality-scores")

// JobQualityScores lists every scored job with its survey fields.
//
//	GET /api/jobs/quality-scores
func (h *Handlers) JobQualityScores(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Jobs         []quality.JobScore `json:"jobs"`
		AverageScore float64            `json:"average_score"`
		Count        int                `json:"count"`
	}

	var resp response
	if h.cache.GetJSON(r.Context(), qualityScoresKey, &resp) {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	scores := quality.ScoreJobs(h.store.Snapshot().QualityRows)
	resp = response{
		Jobs:         scores,
		AverageScore: quality.AverageScore(scores),
		Count:        len(scores),
	}
	h.cache.SetJSON(r.Context(), qualityScoresKey, resp)
	respondJSON(w, http.StatusOK, resp)
}

// JobImpactScenarios contrasts current against perfect job quality.
//
//	GET /api/estimates/job-impact?budget=100000&duration=2&as_goal=5000
func (h *Handlers) JobImpactScenarios(w http.ResponseWriter, r *http.Request) {
	budget, err := requiredFloat(r, "budget")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	duration, err := optionalInt(r, "duration", 1)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := requiredFloat(r, "as_goal")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := forecast.ImpactRequest{
		Budget:         budget,
		DurationWeeks:  duration,
		ApplyStartGoal: goal,
	}
	if req.StartDate, err = optionalDate(r, "start_date"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EndDate, err = optionalDate(r, "end_date"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.StartDate == nil) != (req.EndDate == nil) {
		respondError(w, http.StatusBadRequest, "start_date and end_date must be supplied together")
		return
	}

	res, err := h.estimator.JobImpact(req)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("job impact calculation failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Query parameter helpers

func requiredFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q: %s", name, raw)
	}
	return v, nil
}

func optionalFloatPtr(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %q: %s", name, raw)
	}
	return &v, nil
}

func optionalInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %q: %s", name, raw)
	}
	return v, nil
}

func optionalDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %q: expected YYYY-MM-DD, got %s", name, raw)
	}
	return &t, nil
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
