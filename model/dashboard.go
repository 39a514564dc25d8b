package model

import "time"

// FeatureRow is one normalized record of the usage feed: a single day of
// per-feature counters for one age/gender segment. Day is canonical
// yyyy-MM-dd after normalization.
type FeatureRow struct {
	Day      string             `json:"day"`
	Age      string             `json:"age"`
	Gender   string             `json:"gender"`
	Features map[string]float64 `json:"features"`
}

// FeatureTotal is one bar of the usage chart
type FeatureTotal struct {
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
	Selected bool    `json:"selected"`
}

// TimeSeriesPoint is one point of the trend chart for the selected feature
type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SavedView is a shareable snapshot of the dashboard filter state
// (stored in Redis under a short random ID)
type SavedView struct {
	ID           string    `json:"id"`
	ManagementID string    `json:"managementID"` // UUID required to delete the view
	From         string    `json:"from"`
	To           string    `json:"to"`
	Feature      string    `json:"feature"`
	AgeGroup     string    `json:"age"`
	Gender       string    `json:"gender"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SavedViewRequest is the body of POST /api/views
type SavedViewRequest struct {
	From     string `json:"from" example:"2022-10-04"`
	To       string `json:"to" example:"2022-10-29"`
	Feature  string `json:"feature,omitempty" example:"C"`
	AgeGroup string `json:"age,omitempty" example:"15-25"`
	Gender   string `json:"gender,omitempty" example:"Male"`
}

// SavedViewResponse is returned after creating a shared view
type SavedViewResponse struct {
	ID           string `json:"id"`
	ViewURL      string `json:"viewURL"`
	ManagementID string `json:"managementID"`
	QRCodeURL    string `json:"qrCodeURL"`
}
