// Package config provides configuration loading for concretelab.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Environment variables use the CONCRETELAB_ prefix followed by the section:
//
//	CONCRETELAB_SERVER_PORT=8080
//	CONCRETELAB_LOGGING_LEVEL=debug
//	CONCRETELAB_PATHS_OUTPUT_DIR=/var/lib/concretelab
//	CONCRETELAB_ANALYSIS_PROTOCOL=direct
//	CONCRETELAB_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Specimens Files
//
// LoadBatch reads a YAML list of specimens with shared defaults. Protocol
// presets (compression, direct) fill the regression head fraction and the
// direct stress flag for specimens that do not set them.
//
// # Path Management
//
// Paths resolves the output and log directories and names the files
// written per specimen:
//
//	paths, _ := config.NewPaths(cfg.Paths)
//	plot := paths.GetPlotPath("Cylinder A") // output/Cylinder A plot.png
package config
