// Command analyzer reduces compression test tables to stress-strain
// results and writes plots and summaries to the output directory.
//
//	analyzer -file cob.xlsx -radius 2 -force-col 3 -disp-col 2
//	analyzer -protocol utm -file utm.csv -header-row 3 -skip-rows 1
//	analyzer -batch specimens.yaml
//	analyzer -version
//	analyzer -dir tests/ -radius 2 -force-col Force -disp-col Displacement
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"concretelab/internal/app"
	"concretelab/internal/config"
	"concretelab/internal/infrastructure"
	"concretelab/internal/services"
	"concretelab/internal/validation"
	"concretelab/pkg/contracts"
	"concretelab/pkg/contracts/domain"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	configFile string
	batch      string
	dir        string
	out        string
	direct     bool
	version    bool
	fields     config.SpecimenFields
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f cliFlags
	fs.StringVar(&f.configFile, "config", "", "config file (defaults to config.yaml when present)")
	fs.StringVar(&f.batch, "batch", "", "specimens YAML file")
	fs.StringVar(&f.dir, "dir", "", "analyze every .csv/.xlsx in this directory with the flags below")
	fs.StringVar(&f.out, "out", "", "output directory (overrides paths.output_dir)")
	fs.BoolVar(&f.version, "version", false, "print version information and exit")

	fs.StringVar(&f.fields.File, "file", "", "input table (.csv or .xlsx)")
	fs.StringVar(&f.fields.Name, "name", "", "specimen name (defaults to the file name)")
	fs.StringVar(&f.fields.Radius, "radius", "", "specimen radius in inches (0 reads Diameter metadata)")
	fs.StringVar(&f.fields.ForceColumn, "force-col", "", "force column: 1-based index or header text")
	fs.StringVar(&f.fields.DisplacementColumn, "disp-col", "", "displacement column: 1-based index or header text")
	fs.StringVar(&f.fields.MinimumForce, "min-force", "", "drop samples below this force")
	fs.StringVar(&f.fields.Protocol, "protocol", "", "compression or direct (utm)")
	fs.StringVar(&f.fields.HeadFraction, "head-fraction", "", "fraction of the series used for the modulus fit, e.g. 3/7")
	fs.StringVar(&f.fields.HeadRows, "head-rows", "", "fixed number of rows for the modulus fit")
	fs.StringVar(&f.fields.HeaderRow, "header-row", "", "0-based header row; rows above are metadata")
	fs.StringVar(&f.fields.SkipRows, "skip-rows", "", "unit rows below the header to skip")
	fs.StringVar(&f.fields.Sheet, "sheet", "", "worksheet name (default first sheet)")
	fs.StringVar(&f.fields.RollingWindow, "rolling-window", "", "rolling average window")
	fs.BoolVar(&f.direct, "direct", false, "columns already hold stress and ram position")
	fs.StringVar(&f.fields.SandLbs, "sand", "", "mix design sand weight (lbs)")
	fs.StringVar(&f.fields.AggregateLbs, "aggregate", "", "mix design aggregate weight (lbs)")
	fs.StringVar(&f.fields.CementLbs, "cement", "", "mix design cement weight (lbs)")
	fs.StringVar(&f.fields.WaterLbs, "water", "", "mix design water weight (lbs)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.direct {
		f.fields.Direct = "true"
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if f.version {
		return &f, nil
	}

	modes := 0
	for _, set := range []bool{f.batch != "", f.dir != "", f.fields.File != ""} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return nil, errors.New("exactly one of -file, -batch or -dir is required")
	}
	return &f, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "analyzer:", err)
		}
		return exitUsage
	}
	if flags.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		fmt.Fprintln(stderr, "analyzer:", err)
		return exitUsage
	}
	if flags.out != "" {
		cfg.Paths.OutputDir = flags.out
	}

	// Results go to stdout, so console logging moves to stderr.
	opts := []app.Option{app.WithArtifacts()}
	switch strings.ToLower(cfg.Logging.Output) {
	case "console", "stdout":
		opts = append(opts, app.WithLogger(infrastructure.NewLogger(cfg.Logging, stderr)))
	}

	a, err := app.NewApplication(cfg, opts...)
	if err != nil {
		fmt.Fprintln(stderr, "analyzer:", err)
		return exitUsage
	}
	defer a.Close(context.Background())

	specimens, err := collectSpecimens(flags, cfg, a)
	if err != nil {
		fmt.Fprintln(stderr, "analyzer:", err)
		return exitUsage
	}

	report, err := a.Analysis.AnalyzeBatch(ctx, specimens)
	if report != nil {
		printOutcomes(report, stdout, stderr)
	}
	if err != nil {
		fmt.Fprintln(stderr, "analyzer:", err)
		return exitFailed
	}
	if report.Failed > 0 {
		return exitFailed
	}
	return exitOK
}

// collectSpecimens builds the specimen list for whichever mode was chosen.
func collectSpecimens(flags *cliFlags, cfg *config.Config, a *app.Application) ([]domain.SpecimenConfig, error) {
	switch {
	case flags.batch != "":
		batch, err := config.LoadBatch(flags.batch, cfg.Analysis)
		if err != nil {
			return nil, err
		}
		return batch.Specimens, nil

	case flags.dir != "":
		inputs, err := validation.NewFileValidator(a.Logger).FindInputs(flags.dir)
		if err != nil {
			return nil, err
		}
		if len(inputs) == 0 {
			return nil, fmt.Errorf("no .csv or .xlsx files in %s", flags.dir)
		}
		specimens := make([]domain.SpecimenConfig, 0, len(inputs))
		for _, path := range inputs {
			fields := flags.fields
			fields.File = path
			fields.Name = stem(path)
			specimen, err := fields.Build(cfg.Analysis)
			if err != nil {
				return nil, err
			}
			specimens = append(specimens, specimen)
		}
		return specimens, nil

	default:
		fields := flags.fields
		if strings.TrimSpace(fields.Name) == "" {
			fields.Name = stem(fields.File)
		}
		specimen, err := fields.Build(cfg.Analysis)
		if err != nil {
			return nil, err
		}
		return []domain.SpecimenConfig{specimen}, nil
	}
}

func printOutcomes(report *services.BatchReport, stdout, stderr io.Writer) {
	for _, outcome := range report.Outcomes {
		if outcome.Failed() {
			fmt.Fprintf(stderr, "%s failed: %v\n", outcome.Name, outcome.Err)
			continue
		}
		result := outcome.Report.Result
		fmt.Fprintf(stdout, "%s Ultimate Strength: %f. Young's Modulus: %f\n",
			result.Name, result.UltimateStrength, result.YoungsModulus)
		printArtifacts(outcome.Report.Artifacts, stdout)
	}
	printArtifacts(report.Artifacts, stdout)
}

func printArtifacts(artifacts []domain.Artifact, w io.Writer) {
	for _, artifact := range artifacts {
		fmt.Fprintf(w, "  wrote %s %s\n", artifact.Kind, artifact.Path)
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
