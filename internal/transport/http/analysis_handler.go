package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"concretelab/internal/config"
	apperrors "concretelab/internal/errors"
	"concretelab/internal/validation"
	"concretelab/pkg/contracts/domain"
)

// FileField is the multipart part holding the specimen table.
const FileField = "file"

// multipartMemory is how much of an upload is kept in memory before
// spilling to disk.
const multipartMemory = 8 << 20

// SpecimenAnalyzer is the part of services.AnalysisService the handler needs.
type SpecimenAnalyzer interface {
	Analyze(ctx context.Context, path string, cfg domain.SpecimenConfig) (*domain.SpecimenReport, error)
	Render(ctx context.Context, path string, cfg domain.SpecimenConfig, w io.Writer) (*domain.SpecimenReport, error)
}

// AnalysisHandler serves the specimen endpoints.
type AnalysisHandler struct {
	service      SpecimenAnalyzer
	analysis     config.AnalysisConfig
	maxUpload    int64
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewAnalysisHandler creates the handler. maxUpload <= 0 disables the
// request size limit.
func NewAnalysisHandler(service SpecimenAnalyzer, analysis config.AnalysisConfig, maxUpload int64, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		analysis:     analysis,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the specimen routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/analyze", h.Analyze)
	r.Post("/plot", h.Plot)
	return r
}

// Analyze handles POST /api/v1/specimens/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receive(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer upload.remove()

	report, err := h.service.Analyze(r.Context(), upload.path, upload.cfg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}

// Plot handles POST /api/v1/specimens/plot. The PNG is buffered so that a
// rendering failure can still be reported as a problem response.
func (h *AnalysisHandler) Plot(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receive(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer upload.remove()

	var buf bytes.Buffer
	report, err := h.service.Render(r.Context(), upload.path, upload.cfg, &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result := report.Result
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Ultimate-Strength", strconv.FormatFloat(result.UltimateStrength, 'f', -1, 64))
	w.Header().Set("X-Youngs-Modulus", strconv.FormatFloat(result.YoungsModulus, 'f', -1, 64))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write plot", slog.String("error", err.Error()))
	}
}

type upload struct {
	path string
	cfg  domain.SpecimenConfig
}

func (u *upload) remove() {
	os.Remove(u.path)
}

// errTooLarge marks an upload over the configured limit.
var errTooLarge = errors.New("upload exceeds size limit")

// receive stores the uploaded table in a temporary file that keeps the
// original extension, and builds the specimen config from the form.
func (h *AnalysisHandler) receive(w http.ResponseWriter, r *http.Request) (*upload, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errTooLarge
		}
		return nil, apperrors.NewAppValidationError("request must be multipart/form-data with a file part")
	}

	file, header, err := r.FormFile(FileField)
	if err != nil {
		return nil, apperrors.NewAppValidationError("missing file part \"" + FileField + "\"")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !validation.IsInputExtension(ext) {
		return nil, apperrors.NewUnsupportedFormatError(header.Filename, ext)
	}

	fields := formFields(r)
	if strings.TrimSpace(fields.Name) == "" {
		fields.Name = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	}
	cfg, err := fields.Build(h.analysis)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid specimen fields", err)
	}

	path, err := saveUpload(file, ext)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to store upload", err)
	}
	cfg.File = header.Filename

	h.logger.DebugContext(r.Context(), "upload received",
		slog.String("specimen", cfg.Name),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))
	return &upload{path: path, cfg: cfg}, nil
}

func (h *AnalysisHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errTooLarge) {
		problem := apperrors.NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			apperrors.TypeValidation,
			"Payload Too Large",
			"upload exceeds "+strconv.FormatInt(h.maxUpload, 10)+" bytes",
			r.URL.Path,
		).WithExtension("trace_id", middleware.GetReqID(r.Context()))
		render.Render(w, r, problem)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

func saveUpload(src multipart.File, ext string) (string, error) {
	dst, err := os.CreateTemp("", "specimen-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func formFields(r *http.Request) config.SpecimenFields {
	return config.SpecimenFields{
		Name:               r.FormValue("name"),
		Radius:             r.FormValue("radius"),
		ForceColumn:        r.FormValue("force-col"),
		DisplacementColumn: r.FormValue("disp-col"),
		MinimumForce:       r.FormValue("min-force"),
		Protocol:           r.FormValue("protocol"),
		HeadFraction:       r.FormValue("head-fraction"),
		HeadRows:           r.FormValue("head-rows"),
		HeaderRow:          r.FormValue("header-row"),
		SkipRows:           r.FormValue("skip-rows"),
		Sheet:              r.FormValue("sheet"),
		Direct:             r.FormValue("direct"),
		RollingWindow:      r.FormValue("rolling-window"),
		SandLbs:            r.FormValue("sand"),
		AggregateLbs:       r.FormValue("aggregate"),
		CementLbs:          r.FormValue("cement"),
		WaterLbs:           r.FormValue("water"),
	}
}
