package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Date formats accepted in the exported CSVs. The warehouse export writes
// ISO dates; hand-maintained sheets sometimes use US-style slashes.
var dateFormats = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02 15:04:05"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", ""))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// headerIndex builds a case-insensitive column lookup from a header row.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func field(row []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := idx[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// stripBOM removes a UTF-8 byte-order mark if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}

// ReadEvents parses the per-job daily event log. Rows with an unparsable
// date or amount are skipped; the count of skipped rows is returned so the
// caller can log it.
func ReadEvents(r io.Reader) ([]EventRecord, int, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read events header: %w", err)
	}
	idx := headerIndex(header)

	var events []EventRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		date, err := parseDate(field(row, idx, "event_publisher_date", "event_date", "date"))
		if err != nil {
			skipped++
			continue
		}
		spend, err1 := parseAmount(field(row, idx, "cdspend", "spend"))
		applies, err2 := parseAmount(field(row, idx, "apply_start", "apply_starts"))
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}

		events = append(events, EventRecord{
			JobRef:      field(row, idx, "main_ref_number", "job_ref", "job_reference_id"),
			Date:        date,
			Spend:       spend,
			ApplyStarts: applies,
		})
	}

	return events, skipped, nil
}

// ReadBudgetLog parses the budget-change log and returns regimes sorted by
// start date ascending, the order the as-of join relies on.
func ReadBudgetLog(r io.Reader) ([]BudgetRegime, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read budget log header: %w", err)
	}
	idx := headerIndex(header)

	var regimes []BudgetRegime
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		date, err := parseDate(field(row, idx, "date", "effective_start_date"))
		if err != nil {
			continue
		}
		budget, err := parseAmount(field(row, idx, "budget", "budget_amount"))
		if err != nil {
			continue
		}
		weeks, err := strconv.Atoi(strings.TrimSpace(field(row, idx, "duration_weeks", "duration")))
		if err != nil {
			continue
		}

		regimes = append(regimes, BudgetRegime{
			StartDate:     date,
			Budget:        budget,
			DurationWeeks: weeks,
		})
	}

	sort.Slice(regimes, func(i, j int) bool {
		return regimes[i].StartDate.Before(regimes[j].StartDate)
	})
	return regimes, nil
}

// ReadQualityRows parses the job-quality spreadsheet. The job ID column in
// the source sheet carries no header, so when no named REQ_ID column exists
// it falls back to the fourth column by position.
func ReadQualityRows(r io.Reader) ([]QualityRow, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read quality header: %w", err)
	}
	idx := headerIndex(header)

	reqIDCol, hasReqID := idx["req_id"]
	if !hasReqID {
		reqIDCol = 3
	}

	var rows []QualityRow
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		reqID := ""
		if reqIDCol < len(row) {
			reqID = strings.TrimSpace(row[reqIDCol])
		}

		rows = append(rows, QualityRow{
			JobTitle:         field(row, idx, "job title"),
			EnglishJobTitle:  field(row, idx, "english job title"),
			Station:          field(row, idx, "station"),
			DSP:              field(row, idx, "dsp"),
			ReqID:            reqID,
			TitleAppropriate: field(row, idx, "title appropriate?"),
			SalaryMentioned:  field(row, idx, "salary mentioned?"),
			PhoneInJD:        field(row, idx, "phone number in jd"),
			JDFormatted:      field(row, idx, "jd formatted correctly?"),
			JobURL:           field(row, idx, "job_url"),
		})
	}

	return rows, nil
}
