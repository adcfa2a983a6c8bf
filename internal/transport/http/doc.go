// Package http exposes specimen analysis over HTTP.
//
// Handlers stay thin: they parse the multipart upload and form fields into
// a domain.SpecimenConfig, hand the file to the analysis service and turn
// failures into RFC 7807 problem responses through errors.ErrorHandler.
//
// # Routes
//
//	GET  /healthz                    liveness
//	GET  /readyz                     readiness (output directory writable)
//	GET  /version                    build information
//	GET  /metrics                    Prometheus exposition
//	POST /api/v1/specimens/analyze   multipart upload, JSON SpecimenReport
//	POST /api/v1/specimens/plot      multipart upload, image/png
//
// Form fields use the analyzer flag names: name, radius, force-col,
// disp-col, min-force, protocol, head-fraction, head-rows, header-row,
// skip-rows, sheet, direct, rolling-window and sand/aggregate/cement/water
// for the mix design. The upload itself is the "file" part.
package http
