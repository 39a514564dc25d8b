package dashboard

import (
	"net/http"
	"net/url"
	"time"
)

// DateFormat is the canonical date layout used everywhere past
// normalization: filter bounds, cookies, query params, responses.
const DateFormat = "2006-01-02"

// Default filter values restored by a preferences reset
const (
	DefaultFrom = "2022-10-04"
	DefaultTo   = "2022-10-29"
	GroupAll    = "all"
)

// Cookie/query keys mirroring the filter state. These are plain cookies,
// deliberately readable by the client, unlike the session cookie.
const (
	KeyFrom    = "from"
	KeyTo      = "to"
	KeyFeature = "feature"
	KeyAge     = "age"
	KeyGender  = "gender"
)

// FilterState is the authoritative dashboard view state. The URL query and
// the preference cookies are derived snapshots of it, produced by
// EncodeQuery and Cookies; they are only read back at initial load.
type FilterState struct {
	From     time.Time
	To       time.Time
	Feature  string // empty means no feature selected
	AgeGroup string // "all", "15-25" or ">25"
	Gender   string // "all", "Male" or "Female"
}

// DefaultFilterState returns the reset defaults
func DefaultFilterState() FilterState {
	from, _ := time.Parse(DateFormat, DefaultFrom)
	to, _ := time.Parse(DateFormat, DefaultTo)

	return FilterState{
		From:     from,
		To:       to,
		Feature:  "",
		AgeGroup: GroupAll,
		Gender:   GroupAll,
	}
}

// FilterStateFromRequest reconstructs the state at load time. Query
// parameters win over preference cookies, cookies over defaults, matching
// how a shared URL overrides a returning visitor's saved view.
func FilterStateFromRequest(r *http.Request) FilterState {
	state := DefaultFilterState()
	query := r.URL.Query()

	lookup := func(key string) string {
		if v := query.Get(key); v != "" {
			return v
		}
		if c, err := r.Cookie(key); err == nil {
			return c.Value
		}
		return ""
	}

	if v := lookup(KeyFrom); v != "" {
		if d, err := time.Parse(DateFormat, v); err == nil {
			state.From = d
		}
	}
	if v := lookup(KeyTo); v != "" {
		if d, err := time.Parse(DateFormat, v); err == nil {
			state.To = d
		}
	}
	if v := lookup(KeyFeature); v != "" {
		state.Feature = v
	}
	if v := lookup(KeyAge); v != "" {
		state.AgeGroup = v
	}
	if v := lookup(KeyGender); v != "" {
		state.Gender = v
	}

	return state
}

// EncodeQuery projects the state into URL query values. The feature key is
// omitted when nothing is selected, so a reset yields a clean URL.
func (f FilterState) EncodeQuery() url.Values {
	params := url.Values{}
	params.Set(KeyFrom, f.From.Format(DateFormat))
	params.Set(KeyTo, f.To.Format(DateFormat))
	if f.Feature != "" {
		params.Set(KeyFeature, f.Feature)
	}
	params.Set(KeyAge, f.AgeGroup)
	params.Set(KeyGender, f.Gender)
	return params
}

// Cookies projects the state into the plain preference cookies
func (f FilterState) Cookies() []*http.Cookie {
	return []*http.Cookie{
		{Name: KeyFrom, Value: f.From.Format(DateFormat), Path: "/"},
		{Name: KeyTo, Value: f.To.Format(DateFormat), Path: "/"},
		{Name: KeyFeature, Value: f.Feature, Path: "/"},
		{Name: KeyAge, Value: f.AgeGroup, Path: "/"},
		{Name: KeyGender, Value: f.Gender, Path: "/"},
	}
}
