// Package report renders cases and run summaries as terminal tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ppiankov/casewatch/internal/dashboard"
	"github.com/ppiankov/casewatch/internal/ingest"
)

// Mode controls the output format
type Mode int

const (
	ASCII    Mode = iota // fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// caseNameWidth wraps long case names in ASCII mode
const caseNameWidth = 48

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(out io.Writer, w table.Writer, m Mode) error {
	var s string
	if m == Markdown {
		s = w.RenderMarkdown()
	} else {
		s = w.Render()
	}
	_, err := fmt.Fprintln(out, s)
	return err
}

// Cases writes one row per case, grouped and ordered like the dashboard
// panels, followed by the headline metrics.
func Cases(out io.Writer, view dashboard.View, m Mode) error {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Group", "Date Filed", "Case", "Docket", "Court", "Deportation", "Detention", "US Citizen"})
	for _, p := range view.Panels {
		for _, e := range p.Entries {
			w.AppendRow(table.Row{
				p.GroupID + 1,
				e.Date,
				e.CaseName,
				e.DocketNumber,
				e.Court,
				e.WrongfulDeportation,
				e.WrongfulDetention,
				e.Citizenship,
			})
		}
		if m == ASCII {
			w.AppendSeparator()
		}
	}
	w.AppendFooter(table.Row{"", "", fmt.Sprintf("%d cases in %d groups", view.Matched, len(view.Panels))})

	cfgs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight}}
	if m == ASCII {
		cfgs = append(cfgs, table.ColumnConfig{Number: 3, WidthMax: caseNameWidth})
	}
	w.SetColumnConfigs(cfgs)
	if err := render(out, w, m); err != nil {
		return err
	}
	return Metrics(out, view.Metrics, m)
}

// Metrics writes the grouped headline counts
func Metrics(out io.Writer, metrics dashboard.Metrics, m Mode) error {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Total Wrongful Cases", "Wrongful Deportation", "Wrongful Detention"})
	w.AppendRow(table.Row{metrics.TotalGroups, metrics.DeportationGroups, metrics.DetentionGroups})
	return render(out, w, m)
}

// Run writes the outcome of an ingestion run
func Run(out io.Writer, stats *ingest.RunStats, m Mode) error {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Run", "Found", "Added", "Skipped", "Analyzed", "Failed", "Reanalyzed", "Took"})
	w.AppendRow(table.Row{
		stats.RunID,
		stats.Found,
		stats.Added,
		stats.Skipped,
		stats.Analyzed,
		stats.Failed,
		stats.Reanalyzed,
		stats.Duration.Round(time.Millisecond).String(),
	})
	return render(out, w, m)
}
