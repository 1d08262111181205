package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	cause := stderrors.New("file does not exist")
	err := NewAppError(ErrTypeLoad, "failed to load orders", cause)

	assert.Equal(t, "[LOAD] failed to load orders: file does not exist", err.Error())
	assert.Equal(t, "[RANGE] start after end", NewRangeError("start after end").Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewAppError(ErrTypeStorage, "write failed", cause)

	assert.True(t, stderrors.Is(err, cause))

	var appErr *AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestWithContext(t *testing.T) {
	err := NewRangeError("bad range").
		WithContext("start", "2023-06").
		WithContext("end", "2023-01")

	assert.Equal(t, "2023-06", err.Context["start"])
	assert.Equal(t, "2023-01", err.Context["end"])
}

func TestNewLoadErrorCarriesFile(t *testing.T) {
	err := NewLoadError("orders_dataset.csv", stderrors.New("no such file"))

	assert.Equal(t, ErrTypeLoad, err.Type)
	assert.Equal(t, "orders_dataset.csv", err.Context["file"])
	assert.Contains(t, err.Error(), "orders_dataset.csv")
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(NewRangeError("x"), ErrTypeRange))
	assert.False(t, IsType(NewRangeError("x"), ErrTypeLoad))
	assert.False(t, IsType(stderrors.New("plain"), ErrTypeRange))
	assert.False(t, IsType(nil, ErrTypeRange))
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
	}{
		{"load maps to not found", NewLoadError("orders_dataset.csv", nil), http.StatusNotFound},
		{"not found maps to not found", NewNotFoundError("dataset"), http.StatusNotFound},
		{"range maps to bad request", NewRangeError("start after end"), http.StatusBadRequest},
		{"validation maps to bad request", NewValidationError("month out of range"), http.StatusBadRequest},
		{"parsing maps to bad request", NewParsingError("bad csv", nil), http.StatusBadRequest},
		{"storage maps to internal", NewStorageError("disk full", nil), http.StatusInternalServerError},
		{"config maps to internal", NewConfigError("bad config", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, string(tt.err.Type), apiErr.ErrorCode)
			assert.Equal(t, tt.err.Message, apiErr.Message)
		})
	}
}

func TestErrValidation(t *testing.T) {
	apiErr := ErrValidation("start_month", "must be between 1 and 12")

	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

	detail, ok := apiErr.Details.(ValidationDetail)
	require.True(t, ok)
	assert.Equal(t, "start_month", detail.Field)
}
