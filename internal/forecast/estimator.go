package forecast

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/recruitops/campaign-insight/internal/config"
	"github.com/recruitops/campaign-insight/internal/dataset"
	"github.com/recruitops/campaign-insight/internal/quality"
	"github.com/recruitops/campaign-insight/internal/regime"
	"github.com/recruitops/campaign-insight/internal/timeseries"
)

// Service runs the estimation pipeline against the loaded snapshot. All
// computation is request-scoped: every call rebuilds its derived tables
// from the immutable snapshot and discards them afterwards.
type Service struct {
	cfg   config.EstimatorConfig
	store *dataset.Store
}

// NewService creates an estimation service over the dataset store.
func NewService(cfg config.EstimatorConfig, store *dataset.Store) *Service {
	return &Service{cfg: cfg, store: store}
}

// CPASRequest is a validated estimation request. Budget and window floors
// are applied inside the service, not by the caller.
type CPASRequest struct {
	Budget         float64
	DurationWeeks  int
	StartDate      *time.Time
	EndDate        *time.Time
	ApplyStartGoal *float64
}

// PacingTrend is one day of the spend pacing schedule.
type PacingTrend struct {
	Day             int     `json:"day"`
	Date            string  `json:"date"`
	DailySpend      float64 `json:"dailySpend"`
	CumulativeSpend float64 `json:"cumulativeSpend"`
}

// CPASEstimate is the assembled estimation result.
type CPASEstimate struct {
	EstimateID        string        `json:"estimate_id"`
	StartDate         string        `json:"start_date"`
	EndDate           string        `json:"end_date"`
	NumDays           int           `json:"num_days"`
	Budget            float64       `json:"budget"`
	TotalSpend        float64       `json:"total_spend"`
	TotalApplyStarts  int           `json:"total_apply_starts"`
	CPAS              float64       `json:"cpas"`
	Confidence        float64       `json:"confidence"`
	PacingTrends      []PacingTrend `json:"pacingTrends"`
	DaysToGoal        *int          `json:"days_to_goal"`
	SeasonalityFactor float64       `json:"seasonality_factor"`
}

// EstimateCPAS produces the CPAS forecast for a budget and date window.
func (s *Service) EstimateCPAS(req CPASRequest) (*CPASEstimate, error) {
	snap := s.store.Snapshot()

	budget := math.Max(req.Budget, s.cfg.MinBudget)
	targetDates := s.targetWindow(req, snap.ReferenceMonth)
	numDays := len(targetDates)

	factor := SeasonalityFactor(s.requestMonth(req, snap.ReferenceMonth))

	// Small budgets take the cheap flat estimate; no model fitting.
	if budget < s.cfg.SimplePathThreshold {
		return s.simpleEstimate(budget, targetDates, factor, req.ApplyStartGoal), nil
	}

	history := s.buildHistory(snap)
	if len(history.days) == 0 {
		return nil, fmt.Errorf("no historical days in reference month %s", snap.ReferenceMonth.Format("2006-01"))
	}

	shares := normalizedShares(history.pacing, targetDates)

	totalApplies, confidence := s.regressionTotals(history, targetDates, budget, shares)

	// The curve takes precedence over the regression CPAS whenever at
	// least two historical regime points exist. The upper CPAS cap only
	// applies on the simple path; here the floor alone is enforced.
	cpas := math.Max(safeDiv(budget, totalApplies), s.cfg.MinCPAS)
	points := BuildCurvePoints(history.days, snap.Regimes)
	if curve, ok := NewSpendCurve(points); ok {
		requestedDaily := budget / float64(numDays)
		cpas = curve.Evaluate(requestedDaily)
		// No upper cap on the curve path; only the floor applies.
		cpas = math.Max(cpas, s.cfg.MinCPAS)
		totalApplies = safeDiv(budget, cpas)
	}

	totalApplies, cpas = applySeasonality(totalApplies, cpas, factor)
	cpas = math.Max(cpas, s.cfg.MinCPAS)

	result := &CPASEstimate{
		EstimateID:        uuid.New().String(),
		StartDate:         targetDates[0].Format("2006-01-02"),
		EndDate:           targetDates[numDays-1].Format("2006-01-02"),
		NumDays:           numDays,
		Budget:            budget,
		TotalSpend:        budget,
		TotalApplyStarts:  int(totalApplies),
		CPAS:              cpas,
		Confidence:        round4(confidence),
		PacingTrends:      pacingTrends(targetDates, shares, budget),
		DaysToGoal:        daysToGoal(req.ApplyStartGoal, totalApplies, numDays),
		SeasonalityFactor: factor,
	}

	log.Printf("estimate %s: budget=%.0f days=%d applies=%d cpas=%.2f confidence=%.4f",
		result.EstimateID, budget, numDays, result.TotalApplyStarts, cpas, confidence)
	return result, nil
}

// simpleEstimate is the deliberate fast path for budgets under the
// threshold: a flat rate from the budget and goal, no model fitting, no
// pacing schedule, confidence pinned at 1.0.
func (s *Service) simpleEstimate(budget float64, dates []time.Time, factor float64, goal *float64) *CPASEstimate {
	numDays := len(dates)

	goalVal := 1.0
	if goal != nil && *goal > 0 {
		goalVal = *goal
	}

	applies := (budget / goalVal) * float64(numDays)
	cpas := budget / ((370 * float64(numDays)) / 3)

	applies, cpas = applySeasonality(applies, cpas, factor)
	cpas = clamp(cpas, s.cfg.MinCPAS, s.cfg.MaxCPAS)

	return &CPASEstimate{
		EstimateID:        uuid.New().String(),
		StartDate:         dates[0].Format("2006-01-02"),
		EndDate:           dates[numDays-1].Format("2006-01-02"),
		NumDays:           numDays,
		Budget:            budget,
		TotalSpend:        budget,
		TotalApplyStarts:  int(applies),
		CPAS:              cpas,
		Confidence:        1.0,
		PacingTrends:      []PacingTrend{},
		DaysToGoal:        daysToGoal(goal, applies, numDays),
		SeasonalityFactor: factor,
	}
}

// history bundles the request-scoped derived tables.
type history struct {
	days       []timeseries.Day
	scores     []quality.JobScore
	avgQuality float64
	pacing     map[int]float64
}

// buildHistory derives the daily aggregates for the reference month.
func (s *Service) buildHistory(snap *dataset.Snapshot) history {
	events := timeseries.FilterMonth(snap.Events, snap.ReferenceMonth.Year(), snap.ReferenceMonth.Month())
	scores := quality.ScoreJobs(snap.QualityRows)
	avgQ := quality.AverageScore(scores)
	days := timeseries.BuildDaily(events, snap.Regimes, avgQ)
	return history{
		days:       days,
		scores:     scores,
		avgQuality: avgQ,
		pacing:     timeseries.PacingShares(days),
	}
}

// regressionTotals fits the per-regime models and sums per-day
// predictions over the target window. When the history is too thin to
// segment or fit, it falls back to a flat historical-CPAS estimate.
func (s *Service) regressionTotals(h history, targetDates []time.Time, budget float64, shares []float64) (float64, float64) {
	seg, err := regime.SegmentHistory(h.days)
	if err != nil {
		log.Printf("regression fallback (segmentation): %v", err)
		return s.flatTotals(h, budget, len(targetDates))
	}
	// Stamps cluster labels onto h.days; fitting reads them back per regime.
	regime.NewHistoricalAssigner(h.days, seg)

	models := s.fitRegimeModels(h.days, seg.K)
	if len(models) == 0 {
		log.Printf("regression fallback: no regime reached 3 historical days")
		return s.flatTotals(h, budget, len(targetDates))
	}

	maxPerDay := s.cfg.MaxApplyStartsPer30 / 3
	var forecaster regime.ForecastAssigner

	total := 0.0
	weightedConf := 0.0
	contributingDays := 0
	for i, date := range targetDates {
		r, ok := forecaster.Assign(date)
		if !ok {
			continue // days past the 28th match no calendar-week regime
		}
		model, ok := models[r]
		if !ok {
			continue
		}

		x := featureRow(budget*shares[i], date, r, seg.K)
		pred := clamp(model.predict(x), 0, maxPerDay)
		pred *= SeasonalityFactor(date.Month())

		total += pred
		weightedConf += model.confidence()
		contributingDays++
	}

	confidence := confidenceDefault
	if contributingDays > 0 {
		confidence = weightedConf / float64(contributingDays)
	} else {
		total = 0
	}

	// Cap the window total at the 30-day maximum, pro-rated.
	maxAllowed := s.cfg.MaxApplyStartsPer30 * (float64(len(targetDates)) / 30)
	if total > maxAllowed {
		log.Printf("capping predicted apply-starts %.0f to %.0f for %d days", total, maxAllowed, len(targetDates))
		total = maxAllowed
	}
	return total, confidence
}

// flatTotals is the degenerate-history fallback: historical mean CPAS
// spread over the window at the requested budget.
func (s *Service) flatTotals(h history, budget float64, numDays int) (float64, float64) {
	sum, n := 0.0, 0
	for _, d := range h.days {
		if cpas, ok := d.CPAS(); ok {
			sum += cpas
			n++
		}
	}
	if n == 0 {
		return 0, confidenceDefault
	}
	meanCPAS := sum / float64(n)
	return safeDiv(budget, meanCPAS), confidenceDefault
}

// fitRegimeModels fits one OLS model per regime with at least 3
// historical days, on [spend, day-of-week one-hot, regime one-hot]
// features with spend and apply-starts clipped to their [p1,p99] range.
func (s *Service) fitRegimeModels(days []timeseries.Day, k int) map[int]*olsModel {
	spends := make([]float64, len(days))
	applies := make([]float64, len(days))
	for i, d := range days {
		spends[i] = d.Spend
		applies[i] = d.ApplyStarts
	}
	spendLo, spendHi := percentileRange(spends)
	appliesLo, appliesHi := percentileRange(applies)

	models := make(map[int]*olsModel)
	for r := 1; r <= k; r++ {
		var X [][]float64
		var y []float64
		for _, d := range days {
			if d.Cluster != r {
				continue
			}
			X = append(X, featureRow(clamp(d.Spend, spendLo, spendHi), d.Date, r, k))
			y = append(y, clamp(d.ApplyStarts, appliesLo, appliesHi))
		}
		if len(X) < 3 {
			continue
		}
		model, err := fitOLS(X, y)
		if err != nil {
			log.Printf("regime %d model skipped: %v", r, err)
			continue
		}
		models[r] = model
	}
	return models
}

// featureRow builds the regression feature vector: spend, 7-dim one-hot
// day of week (Monday first), k-dim one-hot regime membership.
func featureRow(spend float64, date time.Time, r, k int) []float64 {
	x := make([]float64, 1+7+k)
	x[0] = spend
	x[1+mondayIndexed(date.Weekday())] = 1
	x[1+7+(r-1)] = 1
	return x
}

func mondayIndexed(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// targetWindow resolves the forecast dates: an explicit range extended to
// the minimum window, or duration weeks anchored at the reference month.
func (s *Service) targetWindow(req CPASRequest, refMonth time.Time) []time.Time {
	minDays := s.cfg.MinWindowDays

	var start time.Time
	numDays := 0
	if req.StartDate != nil && req.EndDate != nil {
		start = *req.StartDate
		numDays = int(req.EndDate.Sub(start).Hours()/24) + 1
		if numDays < minDays {
			numDays = minDays
		}
	} else {
		start = refMonth
		numDays = req.DurationWeeks * 7
		if numDays < minDays {
			numDays = minDays
		}
	}

	dates := make([]time.Time, numDays)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func (s *Service) requestMonth(req CPASRequest, refMonth time.Time) time.Month {
	if req.StartDate != nil {
		return req.StartDate.Month()
	}
	return refMonth.Month()
}

// normalizedShares maps each target date to its share of the budget from
// the historical day-of-month spend distribution (uniform 1/30 for days
// without history), normalized to sum to 1 across the window.
func normalizedShares(pacing map[int]float64, dates []time.Time) []float64 {
	shares := make([]float64, len(dates))
	sum := 0.0
	for i, d := range dates {
		day := d.Day()
		if day > 30 {
			day = 30
		}
		share, ok := pacing[day]
		if !ok || share <= 0 {
			share = 1.0 / 30
		}
		shares[i] = share
		sum += share
	}
	if sum > 0 {
		for i := range shares {
			shares[i] /= sum
		}
	}
	return shares
}

func pacingTrends(dates []time.Time, shares []float64, budget float64) []PacingTrend {
	trends := make([]PacingTrend, len(dates))
	cumulative := 0.0
	for i, d := range dates {
		daySpend := budget * shares[i]
		cumulative += daySpend
		trends[i] = PacingTrend{
			Day:             i + 1,
			Date:            d.Format("2006-01-02"),
			DailySpend:      round2(daySpend),
			CumulativeSpend: round2(cumulative),
		}
	}
	return trends
}

// daysToGoal computes ceil(goal / dailyRate) when a goal is supplied and
// the daily apply-start rate is positive; nil otherwise.
func daysToGoal(goal *float64, totalApplies float64, numDays int) *int {
	if goal == nil || *goal <= 0 || numDays == 0 {
		return nil
	}
	dailyRate := totalApplies / float64(numDays)
	if dailyRate <= 0 {
		return nil
	}
	d := int(math.Ceil(*goal / dailyRate))
	return &d
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
