package dashboard

import (
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"usage-dashboard/model"
)

// feedDateFormat is the day/month/year layout the raw feed uses
const feedDateFormat = "2/1/2006"

// Column names the feed reserves for row metadata; every other numeric
// column is a feature counter.
const (
	columnDay    = "Day"
	columnAge    = "Age"
	columnGender = "Gender"
)

// Pipeline derives the dashboard views from raw feed rows. All steps past
// parsing are pure and re-run in full on every filter change.
type Pipeline struct {
	features []string
}

// NewPipeline creates a pipeline aggregating the given feature columns.
// Declaration order is preserved and breaks ties in the totals sort.
func NewPipeline(features []string) *Pipeline {
	return &Pipeline{features: features}
}

// Features returns the configured feature columns in declaration order
func (p *Pipeline) Features() []string {
	return p.features
}

// Parse reads CSV text into header-keyed rows. Numeric cells are typed as
// floats; Day, Age and Gender stay strings. Day is still in feed format
// here; Normalize canonicalizes it.
func (p *Pipeline) Parse(csvText string) ([]model.FeatureRow, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1 // tolerate ragged rows, missing cells read as absent

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]model.FeatureRow, 0, len(records)-1)

	for _, record := range records[1:] {
		row := model.FeatureRow{Features: make(map[string]float64)}

		for i, name := range header {
			if i >= len(record) {
				break
			}
			value := strings.TrimSpace(record[i])

			switch name {
			case columnDay:
				row.Day = value
			case columnAge:
				row.Age = value
			case columnGender:
				row.Gender = value
			default:
				if number, err := strconv.ParseFloat(value, 64); err == nil {
					row.Features[name] = number
				}
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// Normalize rewrites each row's Day from d/M/yyyy to yyyy-MM-dd. Rows whose
// date does not parse are dropped with a warning, never a failure.
func (p *Pipeline) Normalize(rows []model.FeatureRow) []model.FeatureRow {
	normalized := make([]model.FeatureRow, 0, len(rows))

	for _, row := range rows {
		day, err := time.Parse(feedDateFormat, row.Day)
		if err != nil {
			log.Warn().Str("day", row.Day).Msg("Dropping row with unparsable date")
			continue
		}

		row.Day = day.Format(DateFormat)
		normalized = append(normalized, row)
	}

	return normalized
}

// Filter keeps rows inside the date range (inclusive) whose age and gender
// match the state, with "all" matching everything.
func (p *Pipeline) Filter(rows []model.FeatureRow, state FilterState) []model.FeatureRow {
	filtered := make([]model.FeatureRow, 0, len(rows))

	for _, row := range rows {
		day, err := time.Parse(DateFormat, row.Day)
		if err != nil {
			continue
		}
		if day.Before(state.From) || day.After(state.To) {
			continue
		}
		if state.AgeGroup != GroupAll && row.Age != state.AgeGroup {
			continue
		}
		if state.Gender != GroupAll && row.Gender != state.Gender {
			continue
		}

		filtered = append(filtered, row)
	}

	return filtered
}

// Totals sums each configured feature across the rows, sorted descending by
// total. The sort is stable so tied features keep declaration order. The
// selected feature is flagged for the chart to highlight.
func (p *Pipeline) Totals(rows []model.FeatureRow, selected string) []model.FeatureTotal {
	totals := make([]model.FeatureTotal, 0, len(p.features))

	for _, feature := range p.features {
		var sum float64
		for _, row := range rows {
			sum += row.Features[feature]
		}
		totals = append(totals, model.FeatureTotal{
			Name:     feature,
			Total:    sum,
			Selected: feature == selected,
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})

	return totals
}

// Series maps the rows to date/value points for the selected feature,
// ascending by date. Empty when no feature is selected; missing days are
// not gap-filled.
func (p *Pipeline) Series(rows []model.FeatureRow, feature string) []model.TimeSeriesPoint {
	if feature == "" {
		return []model.TimeSeriesPoint{}
	}

	series := make([]model.TimeSeriesPoint, 0, len(rows))
	for _, row := range rows {
		series = append(series, model.TimeSeriesPoint{
			Date:  row.Day,
			Value: row.Features[feature],
		})
	}

	// Canonical dates sort correctly as strings
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	return series
}
