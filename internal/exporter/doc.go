// Package exporter writes specimen results to disk.
//
// ChartRenderer draws the stress-strain plot (measured curve, regression
// line and rolling average, stress axis clipped to [0, ultimate strength]).
// CSVWriter writes per-specimen series files and the batch summary with a
// UTF-8 BOM so spreadsheet tools detect the encoding. WorkbookWriter puts
// the summary and every series into one .xlsx file.
//
// ArtifactExporter ties them to the configured output directory and is what
// the analysis pipeline's export step calls.
package exporter
