package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretelab/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)

	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "unsupported format",
			err:        NewUnsupportedFormatError("a.ods", ".ods"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedFormat,
			wantCode:   "UNSUPPORTED_FORMAT",
		},
		{
			name:       "column not found",
			err:        NewColumnNotFoundError("force", stringer("#4")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeColumnNotFound,
			wantCode:   "COLUMN_NOT_FOUND",
		},
		{
			name:       "malformed data",
			err:        fmt.Errorf("load: %w", NewMalformedDataError(7, "#2", "n/a", nil)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMalformedData,
			wantCode:   "MALFORMED_DATA",
		},
		{
			name:       "empty valid range",
			err:        NewEmptyValidRangeError(3, 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEmptyValidRange,
			wantCode:   "EMPTY_VALID_RANGE",
		},
		{
			name:       "insufficient data",
			err:        NewInsufficientDataError("got 1"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInsufficientData,
			wantCode:   "INSUFFICIENT_DATA_FOR_REGRESSION",
		},
		{
			name:       "validation",
			err:        NewAppValidationError("radius must be positive"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION",
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "storage error hides detail",
			err:        NewStorageError("disk", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/specimens/analyze", nil)
			rec := httptest.NewRecorder()
			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/specimens/analyze", body["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}

			wantLevel := slog.LevelWarn
			if tt.wantStatus >= 500 {
				wantLevel = slog.LevelError
			}
			testutil.AssertLogContains(t, logs, wantLevel, "request failed")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorHandler_ContextExtensions(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	err := NewMalformedDataError(12, `"Force"`, "--", nil).
		WithContext(ContextSpecimen, "Cylinder B")

	problem := handler.ErrorToProblem(err, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, 12, problem.Extensions[ContextRow])
	assert.Equal(t, "Cylinder B", problem.Extensions[ContextSpecimen])
	assert.Contains(t, problem.Detail, "row 12")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("reducer exploded")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(handler)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "reducer exploded", body["panic"])
	assert.NotEmpty(t, body["stack"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "/x").
		WithExtension("field", "radius")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "radius", body["field"])
	assert.Equal(t, "/x", body["instance"])
	assert.NotContains(t, body, "detail")
}
