// Package shared holds helpers used across concretelab packages that do not
// belong to any one layer.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler to capture and assert on log output
//	- Specimen fixtures: ready-made SpecimenConfig values, synthetic load
//	  ramps and writers for .csv and .xlsx input files
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteSamplesCSV(t, t.TempDir(), "a.csv", testutil.RampSamples(200, 150))
//	    ...
//	}
package shared
