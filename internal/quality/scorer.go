package quality

import (
	"math"
	"strings"

	"github.com/recruitops/campaign-insight/internal/dataset"
)

// DefaultAverageScore is used when the spreadsheet yields no scorable rows.
const DefaultAverageScore = 75.0

// JobScore is one scored job: the raw survey fields plus the derived
// 0-100 quality score.
type JobScore struct {
	JobTitle         string  `json:"job_title"`
	EnglishJobTitle  string  `json:"english_job_title"`
	Station          string  `json:"station"`
	DSP              string  `json:"dsp"`
	ReqID            string  `json:"req_id"`
	TitleAppropriate string  `json:"title_appropriate"`
	SalaryMentioned  string  `json:"salary_mentioned"`
	PhoneInJD        string  `json:"phone_in_jd"`
	JDFormatted      string  `json:"jd_formatted"`
	JobURL           string  `json:"job_url"`
	Score            float64 `json:"job_quality_score"`
}

// ScoreJobs derives a quality score for every scorable row. A row with
// neither an English nor a native job title is skipped entirely, not
// scored as zero. Pure function: no shared state between callers.
func ScoreJobs(rows []dataset.QualityRow) []JobScore {
	scores := make([]JobScore, 0, len(rows))
	for _, row := range rows {
		if row.JobTitle == "" && row.EnglishJobTitle == "" {
			continue
		}
		scores = append(scores, JobScore{
			JobTitle:         row.JobTitle,
			EnglishJobTitle:  row.EnglishJobTitle,
			Station:          row.Station,
			DSP:              row.DSP,
			ReqID:            row.ReqID,
			TitleAppropriate: row.TitleAppropriate,
			SalaryMentioned:  row.SalaryMentioned,
			PhoneInJD:        row.PhoneInJD,
			JDFormatted:      row.JDFormatted,
			JobURL:           row.JobURL,
			Score:            scoreRow(row),
		})
	}
	return scores
}

// scoreRow accumulates survey points: 1.0 for a definitive "yes", 0.5 for
// "partially", and for the phone-in-description field the point is earned
// by "no" (a phone number in the description is a quality defect). Blank
// or unrecognized answers contribute nothing.
func scoreRow(row dataset.QualityRow) float64 {
	points := 0.0

	switch answer(row.TitleAppropriate) {
	case "yes":
		points += 1
	case "partially":
		points += 0.5
	}
	if answer(row.SalaryMentioned) == "yes" {
		points += 1
	}
	if strings.EqualFold(strings.TrimSpace(row.PhoneInJD), "no") {
		points += 1
	}
	switch answer(row.JDFormatted) {
	case "yes":
		points += 1
	case "partially":
		points += 0.5
	}

	return round1(points / 4 * 100)
}

// answer normalizes a survey cell to its leading keyword. Cells sometimes
// carry trailing commentary ("Yes - but too long"), so prefix matching.
func answer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "yes") {
		return "yes"
	}
	if strings.HasPrefix(s, "partially") {
		return "partially"
	}
	return s
}

// AverageScore is the arithmetic mean of all scored jobs, used as the flat
// per-day quality default when no per-day mapping exists.
func AverageScore(scores []JobScore) float64 {
	if len(scores) == 0 {
		return DefaultAverageScore
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
