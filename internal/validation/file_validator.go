package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "concretelab/internal/errors"
)

// InputExtensions lists the table formats the loader understands.
var InputExtensions = []string{".csv", ".xlsx"}

// FileValidator checks input tables and output directories before a run
// touches them.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputFile checks that path is a readable .csv or .xlsx file and
// not an editor lock file.
func (v *FileValidator) ValidateInputFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsInputExtension(ext) {
		v.logger.Warn("Unsupported input extension",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewUnsupportedFormatError(path, ext)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s is a temporary Excel file", path)).
			WithContext(apperrors.ContextPath, path)
	}

	return v.ValidateFile(path)
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).
			WithContext(apperrors.ContextPath, path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path)).
			WithContext(apperrors.ContextPath, path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// FindInputs lists the input tables directly inside dir, skipping lock
// files, in lexical order.
func (v *FileValidator) FindInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read directory %s", dir), err)
	}

	var inputs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if IsInputExtension(strings.ToLower(filepath.Ext(name))) {
			inputs = append(inputs, filepath.Join(dir, name))
		}
	}

	v.logger.Debug("Inputs found",
		slog.String("directory", dir),
		slog.Int("count", len(inputs)))
	return inputs, nil
}

// IsInputExtension reports whether ext (lower case, with dot) is loadable.
func IsInputExtension(ext string) bool {
	for _, e := range InputExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
