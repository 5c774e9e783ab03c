package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engine/internal/domain"
)

func TestFailMapsSentinelKinds(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	tests := []struct {
		err      error
		status   int
		kind     string
		contains string
	}{
		{fmt.Errorf("%w: invalid activity type %q", domain.ErrInvalidInput, "x"), http.StatusBadRequest, "invalid_input", `invalid activity type "x"`},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "unauthorized"},
		{fmt.Errorf("%w: profile u1", domain.ErrNotFound), http.StatusNotFound, "not_found", "profile u1"},
		{fmt.Errorf("%w: dial tcp 10.0.0.5:5432", domain.ErrStorageUnavailable), http.StatusInternalServerError, "storage_unavailable", "storage temporarily unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal", "internal server error"},
	}
	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			require.Equal(t, tc.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.kind, body["error"])
			assert.Equal(t, tc.contains, body["message"])
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		})
	}
}

func TestHealthReportsStorage(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	app.Ping = func(ctx context.Context) error { return errors.New("pool closed") }
	rec = httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}
