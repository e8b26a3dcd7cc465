package dataset

import "time"

// EventRecord is one row of the per-job daily event log. Many records may
// exist per job per day. Records are immutable once loaded.
type EventRecord struct {
	JobRef      string    `json:"job_ref"`
	Date        time.Time `json:"date"`
	Spend       float64   `json:"spend"`
	ApplyStarts float64   `json:"apply_starts"`
}

// BudgetRegime is one entry of the budget-change log. A regime is active
// from its start date until the next regime's start date (or end of data).
type BudgetRegime struct {
	StartDate     time.Time `json:"start_date"`
	Budget        float64   `json:"budget"`
	DurationWeeks int       `json:"duration_weeks"`
}

// EndDate returns the nominal regime end: start + duration_weeks * 7 days.
func (r BudgetRegime) EndDate() time.Time {
	return r.StartDate.AddDate(0, 0, r.DurationWeeks*7)
}

// QualityRow is one raw row of the job-quality spreadsheet. Survey answers
// stay as free text; scoring happens in the quality package.
type QualityRow struct {
	JobTitle         string `json:"job_title"`
	EnglishJobTitle  string `json:"english_job_title"`
	Station          string `json:"station"`
	DSP              string `json:"dsp"`
	ReqID            string `json:"req_id"`
	TitleAppropriate string `json:"title_appropriate"`
	SalaryMentioned  string `json:"salary_mentioned"`
	PhoneInJD        string `json:"phone_in_jd"`
	JDFormatted      string `json:"jd_formatted"`
	JobURL           string `json:"job_url"`
}

// Snapshot is the read-only view of all three loaded tables. Handlers and
// the estimation pipeline receive it by injection and never mutate it;
// reloads swap in a whole new snapshot.
type Snapshot struct {
	Events         []EventRecord
	Regimes        []BudgetRegime // sorted by StartDate ascending
	QualityRows    []QualityRow
	ReferenceMonth time.Time // first day of the historical anchor month
	LoadedAt       time.Time
}
