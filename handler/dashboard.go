package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"usage-dashboard/dashboard"
	"usage-dashboard/model"
)

// FilterPayload is the resolved filter state echoed back to the client
type FilterPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Feature  string `json:"feature,omitempty"`
	AgeGroup string `json:"age"`
	Gender   string `json:"gender"`
}

// SummaryResponse is the full dashboard view for one filter state
type SummaryResponse struct {
	Filters     FilterPayload           `json:"filters"`
	Query       string                  `json:"query"` // canonical query string for the address bar
	MatchedRows int                     `json:"matchedRows"`
	Totals      []model.FeatureTotal    `json:"totals"`
	Series      []model.TimeSeriesPoint `json:"series"`
}

// DashboardHandler computes the dashboard views from the usage feed
type DashboardHandler struct {
	source   *dashboard.Source
	pipeline *dashboard.Pipeline
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(source *dashboard.Source, pipeline *dashboard.Pipeline) *DashboardHandler {
	return &DashboardHandler{
		source:   source,
		pipeline: pipeline,
	}
}

func filterPayload(state dashboard.FilterState) FilterPayload {
	return FilterPayload{
		From:     state.From.Format(dashboard.DateFormat),
		To:       state.To.Format(dashboard.DateFormat),
		Feature:  state.Feature,
		AgeGroup: state.AgeGroup,
		Gender:   state.Gender,
	}
}

// mirrorState pushes the resolved filter state into the plain preference
// cookies. The in-memory state stays authoritative; cookies and the query
// string are derived snapshots.
func mirrorState(w http.ResponseWriter, state dashboard.FilterState) {
	for _, cookie := range state.Cookies() {
		http.SetCookie(w, cookie)
	}
}

// Summary handles GET /api/dashboard/summary
// @Summary Dashboard summary
// @Description Resolves the filter state (query over cookies over defaults), runs the aggregation pipeline and mirrors the state back into preference cookies
// @Tags Dashboard
// @Produce json
// @Param from query string false "Start date (yyyy-MM-dd)"
// @Param to query string false "End date (yyyy-MM-dd)"
// @Param feature query string false "Selected feature"
// @Param age query string false "Age group: all, 15-25 or >25"
// @Param gender query string false "Gender: all, Male or Female"
// @Success 200 {object} SummaryResponse "Aggregated dashboard data"
// @Failure 502 {object} ErrorResponse "Usage feed unavailable"
// @Router /api/dashboard/summary [get]
func (dh *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	state := dashboard.FilterStateFromRequest(r)

	rows, err := dh.source.Rows(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load usage feed")
		SendJSONError(w, http.StatusBadGateway, err, "Failed to load usage data")
		return
	}

	filtered := dh.pipeline.Filter(rows, state)
	totals := dh.pipeline.Totals(filtered, state.Feature)
	series := dh.pipeline.Series(filtered, state.Feature)

	mirrorState(w, state)

	SendJSONSuccess(w, http.StatusOK, SummaryResponse{
		Filters:     filterPayload(state),
		Query:       state.EncodeQuery().Encode(),
		MatchedRows: len(filtered),
		Totals:      totals,
		Series:      series,
	})
}

// Reset handles GET /api/dashboard/reset
// @Summary Reset preferences
// @Description Restores the default filter state and rewrites the preference cookies to match
// @Tags Dashboard
// @Produce json
// @Success 200 {object} SummaryResponse "Default filter state"
// @Router /api/dashboard/reset [get]
func (dh *DashboardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state := dashboard.DefaultFilterState()

	mirrorState(w, state)

	// An empty query clears the address bar on the client side
	SendJSONSuccess(w, http.StatusOK, SummaryResponse{
		Filters:     filterPayload(state),
		Query:       "",
		MatchedRows: 0,
		Totals:      []model.FeatureTotal{},
		Series:      []model.TimeSeriesPoint{},
	})
}
