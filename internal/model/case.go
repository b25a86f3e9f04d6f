package model

import (
	"regexp"
	"strings"
	"time"
)

// Verdict is a three-valued classification produced by case analysis
type Verdict string

const (
	VerdictYes     Verdict = "yes"
	VerdictNo      Verdict = "no"
	VerdictUnknown Verdict = "unknown"
	// VerdictNone marks a row whose analysis failed or never ran
	VerdictNone Verdict = ""
)

// ParseVerdict normalizes a raw value. Anything outside yes/no maps to unknown,
// except the empty string which stays empty.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return VerdictNone
	case "yes", "true", "y":
		return VerdictYes
	case "no", "false", "n":
		return VerdictNo
	default:
		return VerdictUnknown
	}
}

// Bool returns the boolean value and whether it is known
func (v Verdict) Bool() (value bool, known bool) {
	switch v {
	case VerdictYes:
		return true, true
	case VerdictNo:
		return false, true
	default:
		return false, false
	}
}

// Label renders the verdict for display ("Yes", "No", "Unknown")
func (v Verdict) Label() string {
	switch v {
	case VerdictYes:
		return "Yes"
	case VerdictNo:
		return "No"
	default:
		return "Unknown"
	}
}

// CaseRecord is one persisted row: search metadata plus the analysis fields
type CaseRecord struct {
	CaseName     string    `json:"case_name"`
	DocketNumber string    `json:"docket_number"`
	Court        string    `json:"court"`
	DateFiled    time.Time `json:"date_filed"` // zero when the source value was missing or unparseable
	URL          string    `json:"url"`        // relative absolute_url as returned by the API

	CaseTitle           string  `json:"case_title"`
	PersonName          string  `json:"person_name"`
	WrongfulDeportation Verdict `json:"wrongful_deportation"`
	WrongfulDetention   Verdict `json:"wrongful_detention"`
	IsUSCitizen         Verdict `json:"is_us_citizen"`
	CaseSummary         string  `json:"case_summary"`
}

// Columns is the fixed column order of the persisted flat file
var Columns = []string{
	"case_name",
	"docket_number",
	"court",
	"date_filed",
	"url",
	"case_title",
	"person_name",
	"wrongful_deportation",
	"wrongful_detention",
	"is_us_citizen",
	"case_summary",
}

// DateLayout is the on-disk date format
const DateLayout = "2006-01-02"

// IsWrongful reports whether either wrongful classification is yes
func (c CaseRecord) IsWrongful() bool {
	return c.WrongfulDeportation == VerdictYes || c.WrongfulDetention == VerdictYes
}

// HasPerson reports whether the extracted person name is usable for grouping
func (c CaseRecord) HasPerson() bool {
	name := strings.TrimSpace(c.PersonName)
	return name != "" && !strings.EqualFold(name, "unknown")
}

// HasAnalysis reports whether the analysis fields were populated
func (c CaseRecord) HasAnalysis() bool {
	return c.CaseSummary != "" || c.CaseTitle != "" ||
		c.WrongfulDeportation != VerdictNone || c.WrongfulDetention != VerdictNone
}

var partySplit = regexp.MustCompile(`\sv\.\s|\sv\s`)

// Parties splits the case name into its party names ("A v. B" -> {A, B})
func (c CaseRecord) Parties() map[string]struct{} {
	parts := partySplit.Split(c.CaseName, -1)
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// FullURL resolves the stored relative URL against base
func (c CaseRecord) FullURL(base string) string {
	if c.URL == "" {
		return ""
	}
	if strings.HasPrefix(c.URL, "http://") || strings.HasPrefix(c.URL, "https://") {
		return c.URL
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(c.URL, "/")
}

// FiledOn returns the filing date as YYYY-MM-DD, or "" when unknown
func (c CaseRecord) FiledOn() string {
	if c.DateFiled.IsZero() {
		return ""
	}
	return c.DateFiled.Format(DateLayout)
}

// Apply copies analysis results onto the record
func (c *CaseRecord) Apply(a *Analysis) {
	if a == nil {
		c.ClearAnalysis()
		return
	}
	c.CaseTitle = a.CaseTitle
	c.PersonName = a.PersonName
	c.WrongfulDeportation = a.WrongfulDeportation
	c.WrongfulDetention = a.WrongfulDetention
	c.IsUSCitizen = a.IsUSCitizen
	c.CaseSummary = a.CaseSummary
}

// ClearAnalysis blanks every analysis field
func (c *CaseRecord) ClearAnalysis() {
	c.CaseTitle = ""
	c.PersonName = ""
	c.WrongfulDeportation = VerdictNone
	c.WrongfulDetention = VerdictNone
	c.IsUSCitizen = VerdictNone
	c.CaseSummary = ""
}

// ParseDate accepts YYYY-MM-DD, RFC3339 and "YYYY-MM-DD HH:MM:SS"
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Analysis holds the six fields extracted by the language model
type Analysis struct {
	CaseTitle           string  `json:"case_title"`
	PersonName          string  `json:"person_name"`
	WrongfulDeportation Verdict `json:"wrongful_deportation"`
	WrongfulDetention   Verdict `json:"wrongful_detention"`
	IsUSCitizen         Verdict `json:"is_us_citizen"`
	CaseSummary         string  `json:"case_summary"`
}

// SearchResult is one hit returned by the records search API
type SearchResult struct {
	CaseName     string
	DocketNumber string
	Court        string
	DateFiled    string
	AbsoluteURL  string
	CaseID       int64 // first opinion id, falling back to the cluster id
	Text         string
	TextErr      error // set when the text fetch during search failed
}

// Record converts the hit into an unanalyzed case row
func (r SearchResult) Record() CaseRecord {
	filed, _ := ParseDate(r.DateFiled)
	return CaseRecord{
		CaseName:     r.CaseName,
		DocketNumber: strings.TrimSpace(r.DocketNumber),
		Court:        r.Court,
		DateFiled:    filed,
		URL:          r.AbsoluteURL,
	}
}
