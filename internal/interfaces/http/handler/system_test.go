package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coltrade/backend/internal/infrastructure/cache"
)

type brokenDir struct{}

func (brokenDir) Dir() string     { return "/missing" }
func (brokenDir) Readable() error { return errors.New("permission denied") }

func TestSystemHandler_Health(t *testing.T) {
	store := newStore(t, nil)
	engine := newEngine(NewSystemHandler(store, cache.NewInMemoryCooldown()).Routes())

	w := doJSON(engine, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, store.Dir(), resp.DataDir)
	assert.True(t, resp.DataReadable)
	assert.Equal(t, "memory", resp.ImportBackend)
	assert.Equal(t, runtime.Version(), resp.GoVersion)
}

func TestSystemHandler_HealthDegraded(t *testing.T) {
	engine := newEngine(NewSystemHandler(brokenDir{}, nil).Routes())

	w := doJSON(engine, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.DataReadable)
	assert.Equal(t, "permission denied", resp.DataError)
}
