// Package dashboard filters, groups and renders stored cases for the web UI.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/casewatch/internal/model"
)

// Citizenship is the citizenship selector of the filter sidebar
type Citizenship string

const (
	CitizenshipAll     Citizenship = "all"
	CitizenshipUS      Citizenship = "us"
	CitizenshipNonUS   Citizenship = "non-us"
	CitizenshipUnknown Citizenship = "unknown"
)

// CitizenshipOptions lists the selector values in display order
var CitizenshipOptions = []Citizenship{CitizenshipAll, CitizenshipUS, CitizenshipNonUS, CitizenshipUnknown}

// ParseCitizenship accepts a value or its label. Empty selects all.
func ParseCitizenship(s string) (Citizenship, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, c := range CitizenshipOptions {
		if norm == string(c) || norm == strings.ToLower(c.Label()) {
			return c, nil
		}
	}
	if norm == "" {
		return CitizenshipAll, nil
	}
	return "", fmt.Errorf("unknown citizenship filter: %s (supported: all, us, non-us, unknown)", s)
}

// Label returns the text shown in the selector
func (c Citizenship) Label() string {
	switch c {
	case CitizenshipUS:
		return "US Citizen"
	case CitizenshipNonUS:
		return "Non-US Citizen"
	case CitizenshipUnknown:
		return "Unknown"
	default:
		return "All"
	}
}

// Matches reports whether a citizenship verdict passes the selector. Rows
// whose analysis failed only pass All.
func (c Citizenship) Matches(v model.Verdict) bool {
	switch c {
	case CitizenshipUS:
		return v == model.VerdictYes
	case CitizenshipNonUS:
		return v == model.VerdictNo
	case CitizenshipUnknown:
		return v == model.VerdictUnknown
	default:
		return true
	}
}

// Filter holds the sidebar selections. Zero values leave a criterion unset.
type Filter struct {
	Courts      []string
	From        time.Time
	To          time.Time
	Citizenship Citizenship
}

// Apply keeps the wrongful rows that match every set criterion. Date bounds
// compare calendar days and are inclusive; undated rows fail any bound.
func (f Filter) Apply(records []model.CaseRecord) []model.CaseRecord {
	courts := make(map[string]struct{}, len(f.Courts))
	for _, c := range f.Courts {
		courts[c] = struct{}{}
	}

	var out []model.CaseRecord
	for _, rec := range records {
		if !rec.IsWrongful() {
			continue
		}
		if len(courts) > 0 {
			if _, ok := courts[rec.Court]; !ok {
				continue
			}
		}
		if !f.inRange(rec.DateFiled) {
			continue
		}
		if !f.Citizenship.Matches(rec.IsUSCitizen) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (f Filter) inRange(filed time.Time) bool {
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if filed.IsZero() {
		return false
	}
	day := truncateDay(filed)
	if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncateDay(f.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wrongful returns the rows where deportation or detention is yes
func Wrongful(records []model.CaseRecord) []model.CaseRecord {
	var out []model.CaseRecord
	for _, rec := range records {
		if rec.IsWrongful() {
			out = append(out, rec)
		}
	}
	return out
}

// FilterOptions describes the choices offered by the sidebar
type FilterOptions struct {
	Courts  []string
	MinDate time.Time
	MaxDate time.Time
}

// Options collects the sorted distinct courts and the filing date span
func Options(records []model.CaseRecord) FilterOptions {
	seen := make(map[string]struct{})
	var opts FilterOptions
	for _, rec := range records {
		if rec.Court != "" {
			if _, ok := seen[rec.Court]; !ok {
				seen[rec.Court] = struct{}{}
				opts.Courts = append(opts.Courts, rec.Court)
			}
		}
		if rec.DateFiled.IsZero() {
			continue
		}
		if opts.MinDate.IsZero() || rec.DateFiled.Before(opts.MinDate) {
			opts.MinDate = rec.DateFiled
		}
		if rec.DateFiled.After(opts.MaxDate) {
			opts.MaxDate = rec.DateFiled
		}
	}
	sort.Strings(opts.Courts)
	return opts
}
