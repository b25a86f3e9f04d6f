package dashboard

import (
	"fmt"
	"html"
	"html/template"
	"strings"
)

const (
	chartWidth  = 640
	barHeight   = 22
	barGap      = 6
	labelWidth  = 180
	lineHeight  = 240
	chartMargin = 32
)

// BarChart renders counts as a horizontal bar chart, one bar per label in
// the given order.
func BarChart(counts []Count) template.HTML {
	if len(counts) == 0 {
		return ""
	}
	maxCount := maxOf(counts)
	plot := float64(chartWidth - labelWidth - chartMargin)
	height := len(counts)*(barHeight+barGap) + barGap

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart bar" viewBox="0 0 %d %d" role="img" aria-label="Cases by court">`, chartWidth, height)
	for i, c := range counts {
		y := barGap + i*(barHeight+barGap)
		w := plot * float64(c.Count) / float64(maxCount)
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end">%s</text>`,
			labelWidth-8, y+barHeight-6, html.EscapeString(c.Label))
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%.1f" height="%d"><title>%s: %d</title></rect>`,
			labelWidth, y, w, barHeight, html.EscapeString(c.Label), c.Count)
		fmt.Fprintf(&b, `<text x="%.1f" y="%d">%d</text>`, float64(labelWidth)+w+4, y+barHeight-6, c.Count)
	}
	b.WriteString(`</svg>`)
	// Every interpolated label is escaped above
	return template.HTML(b.String())
}

// LineChart renders counts as a time series in the given order
func LineChart(counts []Count) template.HTML {
	if len(counts) == 0 {
		return ""
	}
	maxCount := maxOf(counts)
	plotW := float64(chartWidth - 2*chartMargin)
	plotH := float64(lineHeight - 2*chartMargin)

	x := func(i int) float64 {
		if len(counts) == 1 {
			return chartMargin + plotW/2
		}
		return chartMargin + plotW*float64(i)/float64(len(counts)-1)
	}
	y := func(n int) float64 {
		return chartMargin + plotH - plotH*float64(n)/float64(maxCount)
	}

	points := make([]string, len(counts))
	for i, c := range counts {
		points[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(c.Count))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart line" viewBox="0 0 %d %d" role="img" aria-label="Cases over time">`, chartWidth, lineHeight)
	fmt.Fprintf(&b, `<line class="axis" x1="%d" y1="%.1f" x2="%.1f" y2="%.1f"/>`,
		chartMargin, chartMargin+plotH, chartMargin+plotW, chartMargin+plotH)
	fmt.Fprintf(&b, `<polyline fill="none" points="%s"/>`, strings.Join(points, " "))
	for i, c := range counts {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3"><title>%s: %d</title></circle>`,
			x(i), y(c.Count), html.EscapeString(c.Label), c.Count)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`,
			x(i), chartMargin+plotH+16, html.EscapeString(c.Label))
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func maxOf(counts []Count) int {
	m := 1
	for _, c := range counts {
		if c.Count > m {
			m = c.Count
		}
	}
	return m
}
