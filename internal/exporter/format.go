package exporter

import (
	"strconv"
)

// formatFloat writes the shortest representation that round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatFixed formats with a fixed number of decimals for summary columns
func formatFixed(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// formatOptional leaves the cell empty when the value is absent
func formatOptional(f float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
