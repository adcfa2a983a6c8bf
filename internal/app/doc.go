// Package app builds a process out of the configuration: logger,
// OpenTelemetry providers, analysis metrics, services and the HTTP router.
//
// The analyzer CLI uses NewApplication with WithArtifacts and calls Close
// when done. The web server calls Run, which serves until SIGINT or SIGTERM
// and then shuts down within Server.ShutdownTimeout.
package app
