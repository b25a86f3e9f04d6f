// Package store persists case rows to the flat CSV file and publishes it.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/casewatch/internal/model"
)

// Dataset is the in-memory view of the flat file. Rows keep file order;
// new rows are appended after the existing ones.
type Dataset struct {
	records []model.CaseRecord
	dockets map[string]struct{}
	dedup   bool
}

// NewDataset returns an empty dataset with deduplication enabled
func NewDataset() *Dataset {
	return &Dataset{dockets: make(map[string]struct{}), dedup: true}
}

// Load reads path into a Dataset. A missing file yields an empty dataset.
func Load(path string, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("no existing case file, starting fresh", zap.String("path", path))
		return NewDataset(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open case file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !ds.dedup {
		logger.Warn("case file has no docket_number column, duplicate detection disabled", zap.String("path", path))
	}

	logger.Debug("case file loaded", zap.String("path", path), zap.Int("rows", ds.Len()))
	return ds, nil
}

// Read decodes CSV rows by header name. Unknown columns are ignored and
// missing ones are left blank.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewDataset(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	ds := NewDataset()
	_, ds.dedup = index["docket_number"]

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		filed, _ := model.ParseDate(field("date_filed"))
		rec := model.CaseRecord{
			CaseName:            field("case_name"),
			DocketNumber:        strings.TrimSpace(field("docket_number")),
			Court:               field("court"),
			DateFiled:           filed,
			URL:                 field("url"),
			CaseTitle:           field("case_title"),
			PersonName:          field("person_name"),
			WrongfulDeportation: model.ParseVerdict(field("wrongful_deportation")),
			WrongfulDetention:   model.ParseVerdict(field("wrongful_detention")),
			IsUSCitizen:         model.ParseVerdict(field("is_us_citizen")),
			CaseSummary:         field("case_summary"),
		}

		ds.records = append(ds.records, rec)
		if ds.dedup && rec.DocketNumber != "" {
			ds.dockets[rec.DocketNumber] = struct{}{}
		}
	}

	return ds, nil
}

// Has reports whether a row with docket already exists
func (d *Dataset) Has(docket string) bool {
	_, ok := d.dockets[strings.TrimSpace(docket)]
	return ok
}

// Dedup reports whether the dataset can detect duplicates
func (d *Dataset) Dedup() bool {
	return d.dedup
}

// Add appends rec unless its docket is empty or already present.
func (d *Dataset) Add(rec model.CaseRecord) bool {
	docket := strings.TrimSpace(rec.DocketNumber)
	if docket == "" || d.Has(docket) {
		return false
	}
	rec.DocketNumber = docket
	d.records = append(d.records, rec)
	d.dockets[docket] = struct{}{}
	return true
}

// Records returns the rows in file order followed by added rows
func (d *Dataset) Records() []model.CaseRecord {
	return d.records
}

// Update replaces the row at i, keeping its docket
func (d *Dataset) Update(i int, rec model.CaseRecord) {
	rec.DocketNumber = d.records[i].DocketNumber
	d.records[i] = rec
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.records)
}

// Save writes records to path. The file is written beside the target and
// renamed into place.
func Save(path string, records []model.CaseRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := Write(tmp, records); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace case file: %w", err)
	}
	return nil
}

// Write encodes records with the fixed column header
func Write(w io.Writer, records []model.CaseRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.CaseName,
			rec.DocketNumber,
			rec.Court,
			rec.FiledOn(),
			rec.URL,
			rec.CaseTitle,
			rec.PersonName,
			string(rec.WrongfulDeportation),
			string(rec.WrongfulDetention),
			string(rec.IsUSCitizen),
			rec.CaseSummary,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", rec.DocketNumber, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
