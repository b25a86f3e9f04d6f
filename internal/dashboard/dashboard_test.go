package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/casewatch/internal/grouping"
	"github.com/ppiankov/casewatch/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fixture returns four wrongful rows and one row that is not wrongful
func fixture() []model.CaseRecord {
	return []model.CaseRecord{
		{
			CaseName: "Abrego Garcia v. Noem", DocketNumber: "8:25-cv-00951", Court: "D. Md.",
			DateFiled: day("2025-03-24"), URL: "/opinion/1/abrego/",
			PersonName: "Kilmar Abrego Garcia", CaseSummary: strings.Repeat("a", 200),
			WrongfulDeportation: model.VerdictYes, WrongfulDetention: model.VerdictNo, IsUSCitizen: model.VerdictNo,
		},
		{
			CaseName: "Abrego Garcia v. Bondi", DocketNumber: "24-1234", Court: "4th Cir.",
			DateFiled: day("2025-04-07"), URL: "/opinion/2/abrego-bondi/",
			PersonName: "Kilmar Abrego Garcia", CaseSummary: "Appeal of the removal order.",
			WrongfulDeportation: model.VerdictYes, WrongfulDetention: model.VerdictUnknown, IsUSCitizen: model.VerdictNo,
		},
		{
			CaseName: "Doe v. Smith", DocketNumber: "1:25-cv-00100", Court: "D. Mass.",
			DateFiled: day("2025-05-02"),
			PersonName: "unknown", CaseTitle: "Habeas petition", CaseSummary: "Held without charge.",
			WrongfulDeportation: model.VerdictNo, WrongfulDetention: model.VerdictYes, IsUSCitizen: model.VerdictYes,
		},
		{
			CaseName: "Roe v. Jones", DocketNumber: "2:25-cv-00200", Court: "D. Mass.",
			PersonName: "Jane Roe",
			WrongfulDeportation: model.VerdictNo, WrongfulDetention: model.VerdictYes, IsUSCitizen: model.VerdictUnknown,
		},
		{
			CaseName: "People v. Nobody", DocketNumber: "3:25-cv-00300", Court: "D. Md.",
			DateFiled: day("2025-05-10"),
			WrongfulDeportation: model.VerdictNo, WrongfulDetention: model.VerdictNo, IsUSCitizen: model.VerdictNo,
		},
	}
}

func dockets(records []model.CaseRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.DocketNumber
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	records := fixture()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter keeps wrongful rows", Filter{}, []string{"8:25-cv-00951", "24-1234", "1:25-cv-00100", "2:25-cv-00200"}},
		{"court", Filter{Courts: []string{"D. Mass."}}, []string{"1:25-cv-00100", "2:25-cv-00200"}},
		{"inclusive from", Filter{From: day("2025-04-07")}, []string{"24-1234", "1:25-cv-00100"}},
		{"inclusive to", Filter{To: day("2025-04-07")}, []string{"8:25-cv-00951", "24-1234"}},
		{"to compares calendar days", Filter{To: day("2025-03-24").Add(3 * time.Hour)}, []string{"8:25-cv-00951"}},
		{"us citizen", Filter{Citizenship: CitizenshipUS}, []string{"1:25-cv-00100"}},
		{"non-us", Filter{Citizenship: CitizenshipNonUS}, []string{"8:25-cv-00951", "24-1234"}},
		{"unknown citizenship", Filter{Citizenship: CitizenshipUnknown}, []string{"2:25-cv-00200"}},
		{"no match", Filter{Courts: []string{"9th Cir."}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dockets(tt.filter.Apply(records))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_NarrowingNeverGrows(t *testing.T) {
	records := fixture()
	base := Filter{}
	narrower := []Filter{
		{Courts: []string{"D. Mass."}},
		{Courts: []string{"D. Mass."}, Citizenship: CitizenshipUS},
		{Courts: []string{"D. Mass."}, Citizenship: CitizenshipUS, From: day("2025-01-01")},
		{Courts: []string{"D. Mass."}, Citizenship: CitizenshipUS, From: day("2025-01-01"), To: day("2025-05-01")},
	}

	prev := len(base.Apply(records))
	for i, f := range narrower {
		n := len(f.Apply(records))
		if n > prev {
			t.Errorf("step %d: Expected at most %d rows, got %d", i, prev, n)
		}
		prev = n
	}
}

func TestParseCitizenship(t *testing.T) {
	tests := []struct {
		in      string
		want    Citizenship
		wantErr bool
	}{
		{"", CitizenshipAll, false},
		{"us", CitizenshipUS, false},
		{"US Citizen", CitizenshipUS, false},
		{"Non-US Citizen", CitizenshipNonUS, false},
		{" unknown ", CitizenshipUnknown, false},
		{"martian", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCitizenship(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCitizenship(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCitizenship(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOptions(t *testing.T) {
	opts := Options(fixture())

	if diff := cmp.Diff([]string{"4th Cir.", "D. Mass.", "D. Md."}, opts.Courts); diff != "" {
		t.Errorf("Courts mismatch (-want +got):\n%s", diff)
	}
	if !opts.MinDate.Equal(day("2025-03-24")) {
		t.Errorf("Expected min date 2025-03-24, got %s", opts.MinDate)
	}
	if !opts.MaxDate.Equal(day("2025-05-10")) {
		t.Errorf("Expected max date 2025-05-10, got %s", opts.MaxDate)
	}
}

func TestComputeMetrics(t *testing.T) {
	got := ComputeMetrics(fixture(), grouping.ModeHeuristic)

	// Abrego Garcia rows share a person; Doe and Roe are singletons
	want := Metrics{TotalGroups: 3, DeportationGroups: 1, DetentionGroups: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeMetrics() mismatch (-want +got):\n%s", diff)
	}
}

func TestCourtCounts(t *testing.T) {
	got := CourtCounts(fixture())
	want := []Count{{"D. Mass.", 2}, {"D. Md.", 2}, {"4th Cir.", 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CourtCounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestMonthlyCounts(t *testing.T) {
	got := MonthlyCounts(fixture())
	want := []Count{{"2025-03", 1}, {"2025-04", 1}, {"2025-05", 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MonthlyCounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestPanels(t *testing.T) {
	records := Filter{}.Apply(fixture())
	panels := Panels(records, grouping.Group(records, grouping.ModeHeuristic), "")

	if len(panels) != 3 {
		t.Fatalf("Expected 3 panels, got %d", len(panels))
	}

	group := panels[0]
	if group.Title != "Case Group: Kilmar Abrego Garcia - 2 related cases" {
		t.Errorf("Unexpected group title: %q", group.Title)
	}
	if !group.Multi() {
		t.Error("Expected a multi-case panel")
	}
	if group.Citizenship != "No" {
		t.Errorf("Expected shared citizenship No, got %q", group.Citizenship)
	}
	// newest first
	if group.Entries[0].DocketNumber != "24-1234" {
		t.Errorf("Expected newest entry first, got %s", group.Entries[0].DocketNumber)
	}
	if got := group.Entries[1].Summary; got != strings.Repeat("a", 150)+"..." {
		t.Errorf("Expected truncated summary, got %d chars", len(got))
	}
	if group.Entries[1].Link != "https://courtlistener.com/opinion/1/abrego/" {
		t.Errorf("Unexpected link: %s", group.Entries[1].Link)
	}
	if h := group.Entries[0].Heading(); h != "2025-04-07 - Abrego Garcia v. Bondi (4th Cir.)" {
		t.Errorf("Unexpected heading: %q", h)
	}

	single := panels[1]
	if single.Title != "Doe v. Smith - 1:25-cv-00100 (D. Mass.)" {
		t.Errorf("Unexpected singleton title: %q", single.Title)
	}
	e := single.Entries[0]
	if e.Citizenship != "Yes" || e.WrongfulDetention != "Yes" || e.WrongfulDeportation != "No" {
		t.Errorf("Unexpected labels: %+v", e)
	}
	if e.Link != "" {
		t.Errorf("Expected no link for a row without url, got %q", e.Link)
	}
}

func TestPanels_OrderedByFirstRow(t *testing.T) {
	records := []model.CaseRecord{
		{CaseName: "Lee v. Holder", DocketNumber: "a", PersonName: "Ann Lee"},
		{CaseName: "Smith v. Noem", DocketNumber: "b"},
		{CaseName: "Garcia v. Trump", DocketNumber: "c", PersonName: "Kilmar Garcia"},
		{CaseName: "Smith v. Wolf", DocketNumber: "d"},
		{CaseName: "Garcia v. Bondi", DocketNumber: "e", PersonName: "Kilmar Garcia"},
	}
	clusters := grouping.Group(records, grouping.ModeHeuristic)
	panels := Panels(records, clusters, SiteURL)

	var got []string
	for _, p := range panels {
		got = append(got, p.Entries[0].DocketNumber)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("panel order mismatch (-want +got):\n%s", diff)
	}
	if panels[0].Multi() || !panels[1].Multi() || !panels[2].Multi() {
		t.Errorf("Expected singleton then two groups, got sizes %d %d %d", panels[0].Size, panels[1].Size, panels[2].Size)
	}
	if clusters[0].Indices[0] != 2 {
		t.Errorf("Expected the person group to be created first, got %+v", clusters)
	}
}

func TestPanels_GroupWithoutNamesOrAgreement(t *testing.T) {
	records := []model.CaseRecord{
		{CaseName: "Alpha v. Noem", PersonName: "unknown", IsUSCitizen: model.VerdictYes},
		{CaseName: "Beta v. Noem", PersonName: "", IsUSCitizen: model.VerdictNo},
	}
	panels := Panels(records, grouping.Group(records, grouping.ModeHeuristic), SiteURL)

	if len(panels) != 1 {
		t.Fatalf("Expected 1 panel, got %d", len(panels))
	}
	if panels[0].Title != "Case Group: Unknown - 2 related cases" {
		t.Errorf("Unexpected title: %q", panels[0].Title)
	}
	if panels[0].Citizenship != "" {
		t.Errorf("Expected no shared citizenship, got %q", panels[0].Citizenship)
	}
}

func TestCharts(t *testing.T) {
	if BarChart(nil) != "" || LineChart(nil) != "" {
		t.Error("Expected empty charts for no data")
	}

	bar := string(BarChart([]Count{{"<script>", 3}, {"D. Md.", 1}}))
	if strings.Contains(bar, "<script>") {
		t.Error("Expected labels to be escaped")
	}
	if strings.Count(bar, "<rect") != 2 {
		t.Errorf("Expected 2 bars, got %d", strings.Count(bar, "<rect"))
	}

	line := string(LineChart([]Count{{"2025-03", 1}}))
	if !strings.Contains(line, "<polyline") || !strings.Contains(line, "2025-03") {
		t.Errorf("Unexpected line chart: %s", line)
	}
}
