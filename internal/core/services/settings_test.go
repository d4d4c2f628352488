package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/adapters/driven/storage/memory"
	"github.com/policyledger/fedledger/internal/core/domain"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestSettingsService_Resolve_Defaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil, envFrom(nil))

	settings, err := service.Resolve()

	require.NoError(t, err)
	assert.Equal(t, "data", settings.DataDir)
	assert.Equal(t, filepath.Join("data", "raw"), settings.RawDir)
	assert.Equal(t, filepath.Join("data", "processed"), settings.ProcessedDir)
	assert.Equal(t, filepath.Join("data", "metadata"), settings.MetadataDir)
	assert.True(t, settings.SaveRaw)
	assert.False(t, settings.Overwrite)
	assert.Equal(t, 1, settings.Workers())
	assert.Equal(t, domain.WriteModeAppend, settings.WriteMode)
	assert.Equal(t, domain.DefaultUserAgent, settings.UserAgent)
}

func TestSettingsService_Resolve_Precedence(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"data_dir":    "/from/file",
		"max_workers": int64(8),
		"parallel":    true,
		"log_level":   "info",
	})
	dotenv := map[string]string{
		"FEDLEDGER_DATA_DIR":  "/from/dotenv",
		"FEDLEDGER_LOG_LEVEL": "debug",
	}
	env := envFrom(map[string]string{
		"FEDLEDGER_DATA_DIR": "/from/env",
	})

	settings, err := NewSettingsService(store, dotenv, env).Resolve()

	require.NoError(t, err)
	assert.Equal(t, "/from/env", settings.DataDir)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, 8, settings.Workers())
	assert.Equal(t, filepath.Join("/from/env", "raw"), settings.RawDir)
}

func TestSettingsService_Resolve_ExplicitSinkDirsKept(t *testing.T) {
	env := envFrom(map[string]string{
		"FEDLEDGER_PROCESSED_DIR": "/elsewhere/parquet",
	})

	settings, err := NewSettingsService(memory.NewConfigStore(nil), nil, env).Resolve()

	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/parquet", settings.ProcessedDir)
	assert.Equal(t, filepath.Join("data", "metadata"), settings.MetadataDir)
}

func TestSettingsService_Resolve_NestedKeys(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"http.timeout":             int64(45),
		"http.requests_per_second": 0.5,
	})
	env := envFrom(map[string]string{"FEDLEDGER_METRICS_FILE": "/tmp/fedledger.prom"})

	settings, err := NewSettingsService(store, nil, env).Resolve()

	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, settings.HTTPTimeout)
	assert.InDelta(t, 0.5, settings.RequestsPerSecond, 1e-9)
	assert.Equal(t, "/tmp/fedledger.prom", settings.MetricsFile)
}

func TestSettingsService_Resolve_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad bool", map[string]string{"FEDLEDGER_SAVE_RAW": "maybe"}},
		{"bad int", map[string]string{"FEDLEDGER_MAX_WORKERS": "four"}},
		{"zero workers when parallel", map[string]string{"FEDLEDGER_PARALLEL": "true", "FEDLEDGER_MAX_WORKERS": "0"}},
		{"bad write mode", map[string]string{"FEDLEDGER_WRITE_MODE": "replace"}},
		{"bad log level", map[string]string{"FEDLEDGER_LOG_LEVEL": "loud"}},
		{"bad duration", map[string]string{"FEDLEDGER_HTTP_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSettingsService(memory.NewConfigStore(nil), nil, envFrom(tt.env)).Resolve()

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidSettings)
		})
	}
}

func TestSettingsService_Resolve_InvalidFileValueNamesKey(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"overwrite": "sometimes"})

	_, err := NewSettingsService(store, nil, envFrom(nil)).Resolve()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "overwrite")
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil, envFrom(nil))

	require.NoError(t, service.Set("max_workers", "6"))
	require.NoError(t, service.Set("parallel", "true"))
	require.NoError(t, service.Set("http.timeout", "1m"))

	val, ok := store.Get("max_workers")
	require.True(t, ok)
	assert.Equal(t, 6, val)

	settings, err := service.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 6, settings.Workers())
	assert.Equal(t, time.Minute, settings.HTTPTimeout)
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil, envFrom(nil))

	err := service.Set("unknown_key", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	err = service.Set("save_raw", "perhaps")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	assert.Empty(t, store.Keys())
}

func TestSettingsService_KeysAndPath(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil, envFrom(nil))

	keys := service.Keys()
	assert.Contains(t, keys, "data_dir")
	assert.Contains(t, keys, "http.timeout")
	assert.IsIncreasing(t, keys)
	assert.Equal(t, ":memory:", service.Path())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "FEDLEDGER_DATA_DIR", EnvName("data_dir"))
	assert.Equal(t, "FEDLEDGER_HTTP_REQUESTS_PER_SECOND", EnvName("http.requests_per_second"))
}

func TestReadDotEnv(t *testing.T) {
	dir := t.TempDir()

	values, err := ReadDotEnv(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Empty(t, values)

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FEDLEDGER_DATA_DIR=/archive\n# comment\nFEDLEDGER_PARALLEL=true\n"), 0600))

	values, err = ReadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "/archive", values["FEDLEDGER_DATA_DIR"])
	assert.Equal(t, "true", values["FEDLEDGER_PARALLEL"])
}

func TestSettingsValues(t *testing.T) {
	values := SettingsValues(domain.DefaultSettings())

	assert.Equal(t, "data", values["data_dir"])
	assert.Equal(t, true, values["save_raw"])
	assert.Equal(t, "30s", values["http.timeout"])
	assert.Len(t, values, len(NewSettingsService(memory.NewConfigStore(nil), nil, nil).Keys()))
}
