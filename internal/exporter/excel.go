package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"concretelab/pkg/contracts/domain"
)

// SummarySheet is the first sheet of a results workbook.
const SummarySheet = "Summary"

const maxSheetName = 31

// WorkbookWriter writes batch results to a single .xlsx file.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// WriteWorkbook writes a Summary sheet with one row per outcome, followed by
// a series sheet for every specimen that produced a result.
func (w *WorkbookWriter) WriteWorkbook(path string, outcomes []domain.SpecimenOutcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeRows(f, SummarySheet, toInterfaces(SummaryHeaders), func(add func([]interface{}) error) error {
		for _, o := range outcomes {
			if err := add(summaryValues(o)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		sheet := uniqueSheetName(o.Name, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", sheet, err)
		}
		result := o.Report.Result
		err := writeRows(f, sheet, toInterfaces(SeriesHeaders), func(add func([]interface{}) error) error {
			for i, p := range result.Series {
				var rolling interface{}
				if v, ok := result.RollingAt(i); ok {
					rolling = v
				}
				if err := add([]interface{}{p.Strain, p.Stress, rolling, result.Regression.At(p.Strain)}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Debug("Workbook written",
		slog.String("path", path),
		slog.Int("specimens", len(outcomes)))
	return nil
}

// writeRows streams a header and the rows produced by fill into sheet.
func writeRows(f *excelize.File, sheet string, header []interface{}, fill func(add func([]interface{}) error) error) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet %q: %w", sheet, err)
	}

	row := 1
	add := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return sw.SetRow(cell, cellValues(values))
	}

	if err := add(header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}
	if err := fill(add); err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", sheet, err)
	}
	return sw.Flush()
}

// cellValues writes non-finite numbers as text. A numeric cell holding NaN
// or Inf makes the workbook unreadable.
func cellValues(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[i] = formatFloat(f)
			continue
		}
		out[i] = v
	}
	return out
}

// uniqueSheetName makes name a legal sheet name that is not yet used.
// Excel compares sheet names case-insensitively, so used holds lower case.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Specimen"
	}
	if len([]rune(clean)) > maxSheetName {
		clean = string([]rune(clean)[:maxSheetName])
	}

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(clean)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
