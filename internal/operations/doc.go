// Package operations runs a specimen through the analysis steps.
//
// A Pipeline holds an ordered list of Steps. The standard pipeline is
//
//	load -> reduce -> export
//
// where load validates the configuration and reads the sample table, reduce
// produces the stress-strain result and the report, and export writes the
// plot and tables. Each step reads and extends a SpecimenState. The first
// failing step ends the run; the remaining steps are marked skipped and the
// returned error carries the specimen name and the failing step ID.
//
// Steps are wrapped in trace spans and their durations are recorded when
// the pipeline is given a tracer and metrics.
package operations
