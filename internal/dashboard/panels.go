package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/casewatch/internal/grouping"
	"github.com/ppiankov/casewatch/internal/model"
)

const (
	// SiteURL prefixes the relative case links
	SiteURL = "https://courtlistener.com"

	// summaryPreview is how much of a secondary timeline summary is shown
	summaryPreview = 150
)

// Entry is one case inside a panel
type Entry struct {
	Date                string `json:"date"`
	CaseName            string `json:"case_name"`
	DocketNumber        string `json:"docket_number"`
	Court               string `json:"court"`
	Title               string `json:"title"`
	Person              string `json:"person"`
	Summary             string `json:"summary"`
	WrongfulDeportation string `json:"wrongful_deportation"`
	WrongfulDetention   string `json:"wrongful_detention"`
	Citizenship         string `json:"citizenship"`
	Link                string `json:"link,omitempty"`
}

// Heading is the timeline line for a member of a multi-case group
func (e Entry) Heading() string {
	return fmt.Sprintf("%s - %s (%s)", e.Date, e.CaseName, e.Court)
}

// Panel is one expandable group on the dashboard
type Panel struct {
	GroupID int     `json:"group_id"`
	Title   string  `json:"title"`
	Person  string  `json:"person,omitempty"`
	Size    int     `json:"size"`
	Entries []Entry `json:"entries"`
	// Citizenship is set only when every member carries the same value
	Citizenship string `json:"citizenship,omitempty"`
}

// Multi reports whether the panel holds more than one case
func (p Panel) Multi() bool {
	return p.Size > 1
}

// Panels builds one panel per cluster, ordered by where each cluster's
// first row sits in records. Members are listed newest first; for groups,
// only the newest summary is shown in full.
func Panels(records []model.CaseRecord, clusters []grouping.Cluster, siteURL string) []Panel {
	if siteURL == "" {
		siteURL = SiteURL
	}

	ordered := append([]grouping.Cluster(nil), clusters...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return firstRow(ordered[i]) < firstRow(ordered[j])
	})

	panels := make([]Panel, 0, len(ordered))
	for _, c := range ordered {
		members := make([]model.CaseRecord, 0, c.Size())
		for _, i := range c.Indices {
			members = append(members, records[i])
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].DateFiled.After(members[j].DateFiled)
		})

		p := Panel{GroupID: c.ID, Size: len(members)}
		for _, m := range members {
			p.Entries = append(p.Entries, entry(m, siteURL))
		}

		if len(members) == 1 {
			m := members[0]
			p.Title = fmt.Sprintf("%s - %s (%s)", m.CaseName, m.DocketNumber, m.Court)
			p.Person = m.PersonName
		} else {
			p.Person = groupPerson(members)
			p.Title = fmt.Sprintf("Case Group: %s - %d related cases", p.Person, len(members))
			p.Citizenship = sharedCitizenship(members)
			for i := 1; i < len(p.Entries); i++ {
				p.Entries[i].Summary = preview(p.Entries[i].Summary)
			}
		}
		panels = append(panels, p)
	}
	return panels
}

func firstRow(c grouping.Cluster) int {
	if len(c.Indices) == 0 {
		return -1
	}
	return c.Indices[0]
}

func entry(rec model.CaseRecord, siteURL string) Entry {
	return Entry{
		Date:                rec.FiledOn(),
		CaseName:            rec.CaseName,
		DocketNumber:        rec.DocketNumber,
		Court:               rec.Court,
		Title:               rec.CaseTitle,
		Person:              rec.PersonName,
		Summary:             rec.CaseSummary,
		WrongfulDeportation: rec.WrongfulDeportation.Label(),
		WrongfulDetention:   rec.WrongfulDetention.Label(),
		Citizenship:         rec.IsUSCitizen.Label(),
		Link:                rec.FullURL(siteURL),
	}
}

// groupPerson picks the first usable person name among the members
func groupPerson(members []model.CaseRecord) string {
	for _, m := range members {
		if m.HasPerson() {
			return strings.TrimSpace(m.PersonName)
		}
	}
	return "Unknown"
}

func sharedCitizenship(members []model.CaseRecord) string {
	first := members[0].IsUSCitizen
	if first == model.VerdictNone {
		return ""
	}
	for _, m := range members[1:] {
		if m.IsUSCitizen != first {
			return ""
		}
	}
	return first.Label()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= summaryPreview {
		return s
	}
	return string(r[:summaryPreview]) + "..."
}
