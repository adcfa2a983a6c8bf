// Package dataprocessing turns load-test tables into stress-strain results.
//
// # Architecture
//
// The package has two stages:
//
// 1. Loader: reads a .csv or .xlsx table and yields ordered RawSamples
// 2. Reducer: converts samples to stress and strain, truncates at peak
// load and extracts ultimate strength and the elastic modulus
//
// # Usage
//
//	table, err := dataprocessing.LoadSamples(ctx, "cylinder-1.xlsx", cfg)
//	if err != nil {
//	    return err
//	}
//	result, err := dataprocessing.NewReducer(logger).Reduce(ctx, table.Samples, cfg)
//
// # Data Flow
//
//	File → Loader → RawSamples → Filter → Stress/Strain → Truncate → Metrics
//
// Every step of the Reducer is also exported as a pure function
// (FilterValid, ArgMaxForce, CorrectDisplacement, ToStressStrain, Truncate,
// UltimateStrength, RollingMean, LinearRegression) so each can be tested on
// its own.
//
// # Error Handling
//
// Failures are *errors.AppError values whose Type names the failure kind:
//
//	- UNSUPPORTED_FORMAT for extensions other than .csv and .xlsx
//	- COLUMN_NOT_FOUND when a selector matches no header
//	- MALFORMED_DATA with the offending row and column
//	- EMPTY_VALID_RANGE when the force/displacement filter removes everything
//	- INSUFFICIENT_DATA_FOR_REGRESSION when fewer than 2 points reach the fit
package dataprocessing
