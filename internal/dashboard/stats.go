package dashboard

import (
	"sort"

	"github.com/ppiankov/casewatch/internal/grouping"
	"github.com/ppiankov/casewatch/internal/model"
)

// Metrics are the headline numbers, counted per case group
type Metrics struct {
	TotalGroups       int `json:"total_groups"`
	DeportationGroups int `json:"deportation_groups"`
	DetentionGroups   int `json:"detention_groups"`
}

// ComputeMetrics groups every wrongful row and counts the groups. The
// sidebar filter does not apply to these numbers.
func ComputeMetrics(records []model.CaseRecord, mode grouping.Mode) Metrics {
	wrongful := Wrongful(records)
	groups := grouping.Group(wrongful, mode)

	m := Metrics{TotalGroups: len(groups)}
	for _, g := range groups {
		deport, detain := false, false
		for _, i := range g.Indices {
			deport = deport || wrongful[i].WrongfulDeportation == model.VerdictYes
			detain = detain || wrongful[i].WrongfulDetention == model.VerdictYes
		}
		if deport {
			m.DeportationGroups++
		}
		if detain {
			m.DetentionGroups++
		}
	}
	return m
}

// Count is one bar or point of a chart
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CourtCounts counts rows per court, highest first, ties by name
func CourtCounts(records []model.CaseRecord) []Count {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Court]++
	}

	out := make([]Count, 0, len(counts))
	for court, n := range counts {
		out = append(out, Count{Label: court, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// MonthlyCounts counts rows per YYYY-MM filing month in ascending order.
// Undated rows are skipped.
func MonthlyCounts(records []model.CaseRecord) []Count {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.DateFiled.IsZero() {
			continue
		}
		counts[rec.DateFiled.Format("2006-01")]++
	}

	out := make([]Count, 0, len(counts))
	for month, n := range counts {
		out = append(out, Count{Label: month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
