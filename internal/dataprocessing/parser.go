package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "concretelab/internal/errors"
	"concretelab/pkg/contracts/domain"
)

// Supported input extensions
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

const utf8BOM = "\uFEFF"

// Metadata labels written by the UTM software above the sample table.
const (
	MetaDiameter    = "Diameter (in)"
	MetaBreakStress = "Stress at Break (psi)"
)

// Table is the normalized content of one input file.
type Table struct {
	// Samples in file row order.
	Samples []domain.RawSample
	// Metadata holds "Label: value" rows found above the header row, keyed
	// by the label without its trailing colon.
	Metadata map[string]string
	// Columns is the header row as read.
	Columns []string
}

// MetadataFloat returns a numeric metadata value such as "Diameter (in)".
func (t *Table) MetadataFloat(label string) (float64, bool) {
	raw, ok := t.Metadata[normalizeHeader(label)]
	if !ok {
		return 0, false
	}
	v, err := parseNumber(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Loader reads force/displacement tables from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// LoadSamples reads path with a default loader.
func LoadSamples(ctx context.Context, path string, cfg domain.SpecimenConfig) (*Table, error) {
	return NewLoader(nil).Load(ctx, path, cfg)
}

// Load reads the file at path, locates the configured force and displacement
// columns and parses every data row strictly. Any unparsable cell fails the
// whole load.
func (l *Loader) Load(ctx context.Context, path string, cfg domain.SpecimenConfig) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := readRows(path, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	table, err := buildTable(rows, cfg)
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "samples loaded",
		slog.String("path", path),
		slog.Int("samples", len(table.Samples)),
		slog.Int("metadata_rows", len(table.Metadata)),
	)
	return table, nil
}

// readRows materializes the raw cell grid and releases the file.
func readRows(path, sheet string) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtCSV:
		return readCSV(path)
	case ExtXLSX:
		return readWorkbook(path, sheet)
	default:
		return nil, apperrors.NewUnsupportedFormatError(path, ext)
	}
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open file", err).
			WithContext(apperrors.ContextPath, path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewMalformedDataError(len(rows)+1, "-", "", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).
			WithContext(apperrors.ContextPath, path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewNotFoundError("worksheet")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("sheet %q not found", sheet), err).
			WithContext(apperrors.ContextPath, path)
	}
	return rows, nil
}

func buildTable(rows [][]string, cfg domain.SpecimenConfig) (*Table, error) {
	if cfg.HeaderRow >= len(rows) {
		return nil, apperrors.NewAppError(apperrors.ErrTypeColumnNotFound,
			fmt.Sprintf("header row %d is beyond the %d rows in the file", cfg.HeaderRow+1, len(rows)), nil)
	}

	table := &Table{
		Metadata: readMetadata(rows[:cfg.HeaderRow]),
		Columns:  rows[cfg.HeaderRow],
	}

	dispIdx, err := resolveColumn(table.Columns, cfg.DisplacementColumn, "displacement")
	if err != nil {
		return nil, err
	}
	forceIdx, err := resolveColumn(table.Columns, cfg.ForceColumn, "force")
	if err != nil {
		return nil, err
	}

	start := cfg.HeaderRow + 1 + cfg.SkipRows
	end := len(rows)
	for end > start && isBlankRow(rows[end-1]) {
		end--
	}

	if start < end {
		table.Samples = make([]domain.RawSample, 0, end-start)
	}
	for i := start; i < end; i++ {
		row := rows[i]
		disp, err := parseCell(row, dispIdx, i+1, table.Columns)
		if err != nil {
			return nil, err
		}
		force, err := parseCell(row, forceIdx, i+1, table.Columns)
		if err != nil {
			return nil, err
		}
		table.Samples = append(table.Samples, domain.RawSample{Displacement: disp, Force: force})
	}
	return table, nil
}

// resolveColumn turns a selector into a 0-based column position.
func resolveColumn(header []string, sel domain.ColumnSelector, role string) (int, error) {
	if sel.Name != "" {
		want := normalizeHeader(sel.Name)
		for i, h := range header {
			if normalizeHeader(h) == want {
				return i, nil
			}
		}
		return -1, apperrors.NewColumnNotFoundError(role, sel)
	}
	if sel.Index < 1 || sel.Index > len(header) {
		return -1, apperrors.NewColumnNotFoundError(role, sel)
	}
	return sel.ZeroBased(), nil
}

func parseCell(row []string, col, rowNum int, header []string) (float64, error) {
	var raw string
	if col < len(row) {
		raw = row[col]
	}
	v, err := parseNumber(raw)
	if err != nil {
		return 0, apperrors.NewMalformedDataError(rowNum, columnLabel(header, col), raw, err)
	}
	return v, nil
}

// parseNumber is strict: blanks are errors, thousands separators are allowed.
func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	return strconv.ParseFloat(s, 64)
}

// readMetadata collects the first label/value pair of each row above the
// header. Rows without a value are ignored.
func readMetadata(rows [][]string) map[string]string {
	meta := make(map[string]string)
	for _, row := range rows {
		label, value := "", ""
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if label == "" {
				label = cell
				continue
			}
			value = cell
			break
		}
		if label != "" && value != "" {
			meta[normalizeHeader(label)] = value
		}
	}
	return meta
}

// normalizeHeader strips the BOM, surrounding space and a trailing colon so
// "Stress (psi):" and "Stress (psi)" select the same column.
func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}

func columnLabel(header []string, col int) string {
	if col < len(header) {
		if name := normalizeHeader(header[col]); name != "" {
			return strconv.Quote(name)
		}
	}
	return "#" + strconv.Itoa(col+1)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
