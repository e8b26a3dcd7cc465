package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recruitops/campaign-insight/internal/dataset"
)

func row(title, salary, phone, jd string) dataset.QualityRow {
	return dataset.QualityRow{
		JobTitle:         "Fahrer",
		TitleAppropriate: title,
		SalaryMentioned:  salary,
		PhoneInJD:        phone,
		JDFormatted:      jd,
	}
}

func TestScoreJobs(t *testing.T) {
	tests := []struct {
		name string
		row  dataset.QualityRow
		want float64
	}{
		{"all yes scores 100", row("Yes", "Yes", "No", "Yes"), 100.0},
		{"all blank scores 0", row("", "", "", ""), 0.0},
		{"partially earns half points", row("Partially", "No", "Yes", "Partially"), 25.0},
		{"phone field is inverse", row("No", "No", "No", "No"), 25.0},
		{"trailing commentary still counts", row("Yes - slightly long", "yes", "no", "partially, dense"), 87.5},
		{"unrecognized answers contribute 0", row("maybe", "n/a", "unknown", "?"), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := ScoreJobs([]dataset.QualityRow{tt.row})
			if assert.Len(t, scores, 1) {
				assert.Equal(t, tt.want, scores[0].Score)
				assert.GreaterOrEqual(t, scores[0].Score, 0.0)
				assert.LessOrEqual(t, scores[0].Score, 100.0)
			}
		})
	}
}

func TestScoreJobsSkipsTitlelessRows(t *testing.T) {
	rows := []dataset.QualityRow{
		{TitleAppropriate: "Yes", SalaryMentioned: "Yes"}, // no titles at all
		{EnglishJobTitle: "Driver", TitleAppropriate: "Yes", SalaryMentioned: "Yes", PhoneInJD: "No", JDFormatted: "Yes"},
	}
	scores := ScoreJobs(rows)
	assert.Len(t, scores, 1)
	assert.Equal(t, 100.0, scores[0].Score)
}

func TestAverageScore(t *testing.T) {
	assert.Equal(t, DefaultAverageScore, AverageScore(nil))

	scores := []JobScore{{Score: 100}, {Score: 50}}
	assert.Equal(t, 75.0, AverageScore(scores))
}

func TestScoreRounding(t *testing.T) {
	// 2.5 of 4 points = 62.5 exactly, one decimal
	scores := ScoreJobs([]dataset.QualityRow{row("Yes", "Yes", "Yes", "Partially")})
	assert.Equal(t, 62.5, scores[0].Score)
}
