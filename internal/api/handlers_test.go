package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitops/campaign-insight/internal/config"
	"github.com/recruitops/campaign-insight/internal/dataset"
	"github.com/recruitops/campaign-insight/internal/forecast"
)

func testSnapshot() *dataset.Snapshot {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var events []dataset.EventRecord
	for day := 1; day <= 28; day++ {
		date := time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
		for j := 0; j < 4; j++ {
			events = append(events, dataset.EventRecord{
				JobRef:      fmt.Sprintf("REQ-%03d", j+1),
				Date:        date,
				Spend:       1000 + float64(day*12) + float64(j*30),
				ApplyStarts: 90 + float64(day) + float64(j*5),
			})
		}
	}

	return &dataset.Snapshot{
		Events: events,
		Regimes: []dataset.BudgetRegime{
			{StartDate: ref, Budget: 150000, DurationWeeks: 2},
			{StartDate: ref.AddDate(0, 0, 14), Budget: 200000, DurationWeeks: 2},
		},
		QualityRows: []dataset.QualityRow{
			{JobTitle: "Warehouse Associate", ReqID: "REQ-001", TitleAppropriate: "Yes", SalaryMentioned: "Yes", PhoneInJD: "No", JDFormatted: "Yes"},
			{JobTitle: "Delivery Driver", ReqID: "REQ-002", TitleAppropriate: "Yes", SalaryMentioned: "No", PhoneInJD: "No", JDFormatted: "Partially"},
			{JobTitle: "Sortation Lead", ReqID: "REQ-003", TitleAppropriate: "Partially", SalaryMentioned: "Yes", PhoneInJD: "Yes", JDFormatted: "Yes"},
			{JobTitle: "Dispatcher", ReqID: "REQ-004", TitleAppropriate: "No", SalaryMentioned: "No", PhoneInJD: "No", JDFormatted: "No"},
		},
		ReferenceMonth: ref,
		LoadedAt:       time.Now(),
	}
}

func testRouter() http.Handler {
	store := dataset.NewStore(testSnapshot())
	estimator := forecast.NewService(config.EstimatorConfig{
		MinBudget:           5000,
		MinWindowDays:       7,
		MinCPAS:             3.0,
		MaxCPAS:             15.0,
		MaxApplyStartsPer30: 50000,
		SimplePathThreshold: 50000,
	}, store)
	return SetupRoutes(NewHandlers(estimator, store), nil)
}

func doGet(t *testing.T, router http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestHealthCheck(t *testing.T) {
	rec := doGet(t, testRouter(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2025-06", body["reference_month"])
	assert.EqualValues(t, 112, body["events_loaded"])
}

func TestEstimateCPAS(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/estimates/cpas?budget=10000&duration=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var est forecast.CPASEstimate
	decode(t, rec, &est)
	assert.Equal(t, 1.0, est.Confidence)
	assert.Equal(t, 7, est.NumDays)
	assert.NotEmpty(t, est.EstimateID)
}

func TestEstimateCPASRegression(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/estimates/cpas?budget=200000&duration=4&as_goal=5000")
	require.Equal(t, http.StatusOK, rec.Code)

	var est forecast.CPASEstimate
	decode(t, rec, &est)
	assert.Equal(t, 28, est.NumDays)
	assert.Greater(t, est.TotalApplyStarts, 0)
	assert.GreaterOrEqual(t, est.CPAS, 3.0)
	assert.NotNil(t, est.DaysToGoal)
}

func TestEstimateCPASValidation(t *testing.T) {
	router := testRouter()

	tests := []struct {
		name string
		url  string
	}{
		{"missing budget", "/api/estimates/cpas?duration=1"},
		{"bad budget", "/api/estimates/cpas?budget=abc"},
		{"bad duration", "/api/estimates/cpas?budget=10000&duration=x"},
		{"bad date", "/api/estimates/cpas?budget=10000&start_date=junk&end_date=2025-06-10"},
		{"lone start date", "/api/estimates/cpas?budget=10000&start_date=2025-06-01"},
		{"reversed dates", "/api/estimates/cpas?budget=10000&start_date=2025-06-10&end_date=2025-06-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, router, tt.url)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			decode(t, rec, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDeliveryBoundaries(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/estimates/boundaries?budget=100000&duration_days=7")
	require.Equal(t, http.StatusOK, rec.Code)

	var b forecast.DeliveryBoundaries
	decode(t, rec, &b)
	assert.Equal(t, 7, b.BestCase.DaysUsed)
	assert.LessOrEqual(t, b.BestCase.CPAS, b.WorstCase.CPAS)
}

func TestDeliveryBoundariesMissingBudget(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/estimates/boundaries")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobQualityScores(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/jobs/quality-scores")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs         []map[string]interface{} `json:"jobs"`
		AverageScore float64                  `json:"average_score"`
		Count        int                      `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 4, body.Count)
	require.Len(t, body.Jobs, 4)
	assert.Equal(t, 100.0, body.Jobs[0]["job_quality_score"])
	assert.Greater(t, body.AverageScore, 0.0)
}

func TestJobImpactScenarios(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/estimates/job-impact?budget=100000&duration=2&as_goal=5000")
	require.Equal(t, http.StatusOK, rec.Code)

	var res forecast.JobImpactScenarios
	decode(t, rec, &res)
	assert.GreaterOrEqual(t, res.OptimalJobCount, 1)
	assert.LessOrEqual(t, res.CPASIfPerfectQuality, res.CPASCurrent)
	assert.NotEmpty(t, res.OptimalJobCountReason)
}

func TestJobImpactScenariosRequiresGoal(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/estimates/job-impact?budget=100000&duration=2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	rec := doGet(t, testRouter(), "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
