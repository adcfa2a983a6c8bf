package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"concretelab/pkg/contracts/domain"
)

// SeriesHeaders are the columns of a per-specimen series file.
var SeriesHeaders = []string{"strain", "stress", "rolling_average", "fitted_stress"}

// SummaryHeaders are the columns of the batch summary, one row per specimen.
var SummaryHeaders = []string{
	"name",
	"status",
	"error",
	"ultimate_strength",
	"youngs_modulus",
	"intercept",
	"r_value",
	"r_squared",
	"area",
	"valid_samples",
	"row_max",
	"head_count",
	"reported_break_stress",
	"sand",
	"aggregate",
	"cement",
	"water",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Debug("Writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return writeCSV(file, options)
}

func writeCSV(out io.Writer, options WriteOptions) error {
	// Write BOM if requested (helps Excel recognize UTF-8)
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSeries writes the truncated series of result with its rolling
// average and fitted line.
func (w *CSVWriter) WriteSeries(path string, result *domain.SpecimenResult) error {
	return w.WriteCSV(path, WriteOptions{
		Headers:   SeriesHeaders,
		Records:   SeriesRecords(result),
		BOMPrefix: true,
	})
}

// WriteSummary writes one row per batch outcome.
func (w *CSVWriter) WriteSummary(path string, outcomes []domain.SpecimenOutcome) error {
	records := make([][]string, len(outcomes))
	for i, o := range outcomes {
		records[i] = summaryStrings(summaryValues(o))
	}
	return w.WriteCSV(path, WriteOptions{
		Headers:   SummaryHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

// SeriesRecords renders result as rows under SeriesHeaders. The rolling
// average cell is empty until the first window is full.
func SeriesRecords(result *domain.SpecimenResult) [][]string {
	records := make([][]string, len(result.Series))
	for i, p := range result.Series {
		rolling, ok := result.RollingAt(i)
		records[i] = []string{
			formatFloat(p.Strain),
			formatFloat(p.Stress),
			formatOptional(rolling, ok),
			formatFloat(result.Regression.At(p.Strain)),
		}
	}
	return records
}

// summaryValues lays out one outcome under SummaryHeaders. Absent values
// are nil so the workbook leaves the cell empty.
func summaryValues(o domain.SpecimenOutcome) []interface{} {
	row := make([]interface{}, len(SummaryHeaders))
	row[0] = o.Name
	if o.Failed() {
		row[1] = "failed"
		row[2] = o.Err.Error()
		return row
	}
	row[1] = "ok"

	r := o.Report.Result
	row[3] = r.UltimateStrength
	row[4] = r.YoungsModulus
	row[5] = r.Regression.Intercept
	row[6] = r.Regression.RValue
	row[7] = r.Regression.RSquared()
	row[8] = r.Area
	row[9] = r.ValidSamples
	row[10] = r.RowMax
	row[11] = r.HeadCount
	if r.ReportedBreakStress != nil {
		row[12] = *r.ReportedBreakStress
	}
	if mix := o.Report.Mix; mix != nil {
		row[13] = mix.Sand
		row[14] = mix.Aggregate
		row[15] = mix.Cement
		row[16] = mix.Water
	}
	return row
}

func summaryStrings(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
		case string:
			out[i] = t
		case float64:
			out[i] = formatFloat(t)
		case int:
			out[i] = formatInt(t)
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
