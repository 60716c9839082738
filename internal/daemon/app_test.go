// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/appsettings/internal/appsettings"
	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.API.RateLimitEnabled = false
	cfg.API.ShutdownTimeout = 5 * time.Second
	cfg.Store.Backend = backend
	cfg.Store.Watch = false
	cfg.Store.AutosaveInterval = time.Hour
	switch backend {
	case config.BackendMemory:
		cfg.Store.Path = ""
	case config.BackendFile:
		cfg.Store.Path = filepath.Join(t.TempDir(), "settings.yaml")
	default:
		cfg.Store.Path = filepath.Join(t.TempDir(), "settings.db")
	}
	return cfg
}

func runApp(t *testing.T, app *App) (string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	addr := waitForAddr(t, app.Manager())
	return "http://" + addr, func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("app did not stop")
		}
	}
}

func TestNewAppRequiresParts(t *testing.T) {
	_, err := NewApp(zerologForTest(), nil, Runtime{})
	assert.ErrorIs(t, err, ErrMissingManager)

	m, err := NewManager(testServerConfig(), Deps{Logger: zerologForTest(), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	_, err = NewApp(zerologForTest(), m, Runtime{})
	assert.ErrorIs(t, err, ErrMissingRegistry)
}

func TestAppServesAndFlushesOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig(t, config.BackendFile)
	app, err := Bootstrap(context.Background(), cfg, Options{Version: "test"})
	require.NoError(t, err)
	assert.True(t, app.Settings().EnableVSync.Get())

	base, stop := runApp(t, app)
	client := noKeepAliveClient()

	req, err := http.NewRequest(http.MethodPut, base+"/api/v1/values/Debug/EnableVSync", strings.NewReader(`{"value": false}`))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, app.Settings().EnableVSync.Get())

	resp, err = client.Get(base + "/readyz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	stop()

	// Autosave interval is an hour, so only the shutdown flush wrote this.
	data, err := os.ReadFile(cfg.Store.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EnableVSync: false")
}

func TestBootstrapAppliesPersistedValues(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	fs, err := store.NewFileStore(cfg.Store.Path)
	require.NoError(t, err)
	require.NoError(t, fs.Save(context.Background(), []store.Record{
		{Path: appsettings.PathEnableVSync, Kind: settings.KindBool, Value: "false"},
		{Path: "Removed/Setting", Value: "1"},
	}))

	app, err := Bootstrap(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.rt.Store.Close() })

	assert.False(t, app.Settings().EnableVSync.Get())
	assert.False(t, app.rt.Persister.Status().Dirty())
}

func TestBootstrapWithSchemaFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "app.hcl")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`
group "Debug" {
  expand = true
  setting "EnableVSync" {
    type    = "bool"
    default = true
  }
  setting "FrameCap" {
    type    = "int"
    default = 144
  }
}
`), 0o600))

	cfg := testConfig(t, config.BackendMemory)
	cfg.SchemaFile = schemaPath
	app, err := Bootstrap(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.rt.Store.Close() })

	v, err := app.Settings().Registry.Value("Debug/FrameCap")
	require.NoError(t, err)
	assert.Equal(t, int64(144), v.Current)
}

func TestBootstrapRejectsSchemaWithoutBuiltins(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "app.hcl")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`
setting "Other" {
  type    = "string"
  default = "x"
}
`), 0o600))

	cfg := testConfig(t, config.BackendMemory)
	cfg.SchemaFile = schemaPath
	_, err := Bootstrap(context.Background(), cfg, Options{})
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestAppReloadReconcilesStore(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	app, err := Bootstrap(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.rt.Store.Close() })

	reg := app.Settings().Registry
	require.NoError(t, app.rt.Store.Save(context.Background(), []store.Record{
		{Path: appsettings.PathEnableVSync, Kind: settings.KindBool, Value: "false"},
	}))

	rep, err := app.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{appsettings.PathEnableVSync}, rep.Applied)
	assert.False(t, app.Settings().EnableVSync.Get())
	assert.False(t, app.rt.Persister.Status().Dirty(), "reloaded state must not be written back")

	require.NoError(t, app.rt.Store.Save(context.Background(), nil))
	rep, err = app.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{appsettings.PathEnableVSync}, rep.Reset)
	assert.Empty(t, reg.Overrides())
}

func TestTreeEndpointThroughApp(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	app, err := Bootstrap(context.Background(), cfg, Options{})
	require.NoError(t, err)

	base, stop := runApp(t, app)
	defer stop()

	resp, err := noKeepAliveClient().Get(base + "/api/v1/groups/Debug")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var g struct {
		Name    string           `json:"name"`
		Entries []settings.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	assert.Equal(t, "Debug", g.Name)
	require.Len(t, g.Entries, 1)
	assert.Equal(t, "Enable VSync", g.Entries[0].DisplayName)
}
