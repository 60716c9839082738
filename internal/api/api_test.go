// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/health"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *settings.Registry {
	t.Helper()
	reg, err := settings.New(
		settings.Group("Debug", settings.GroupMeta{Expand: true},
			settings.Bool("EnableVSync", true, settings.Meta{
				DisplayName: "Enable VSync",
				HelpText:    "Enables or disables vertical sync during Present",
			}),
		),
		settings.Group("Render", settings.GroupMeta{DisplayName: "Rendering"},
			settings.Int("MSAASamples", 4, settings.Meta{UseAsConstant: true}),
			settings.Float("Exposure", 1.0, settings.Meta{}),
			settings.Duration("FrameBudget", 16*time.Millisecond, settings.Meta{}),
			settings.String("Title", "demo", settings.Meta{}),
		),
	)
	require.NoError(t, err)
	return reg
}

func newTestServer(t *testing.T, reg *settings.Registry, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(reg, opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestGetValue(t *testing.T) {
	srv := newTestServer(t, testRegistry(t), Options{})

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/values/Debug/EnableVSync", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	got := decode[map[string]any](t, body)
	want := map[string]any{
		"path":          "Debug/EnableVSync",
		"name":          "EnableVSync",
		"kind":          "bool",
		"value":         true,
		"default":       true,
		"isDefault":     true,
		"displayName":   "Enable VSync",
		"helpText":      "Enables or disables vertical sync during Present",
		"useAsConstant": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSetValue(t *testing.T) {
	reg := testRegistry(t)
	srv := newTestServer(t, reg, Options{})

	tests := []struct {
		path string
		body string
		want any
	}{
		{"Debug/EnableVSync", `{"value": false}`, false},
		{"Render/MSAASamples", `{"value": 8}`, int64(8)},
		{"Render/Exposure", `{"value": 2}`, 2.0},
		{"Render/Exposure", `{"value": 0.5}`, 0.5},
		{"Render/FrameBudget", `{"value": "33ms"}`, 33 * time.Millisecond},
		{"Render/Title", `{"value": "hello"}`, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+"/api/v1/values/"+tt.path, tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			v, err := reg.Value(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Current)
		})
	}
}

func TestSetValueTypeMismatch(t *testing.T) {
	reg := testRegistry(t)
	srv := newTestServer(t, reg, Options{})
	before := reg.Revision()

	tests := []struct {
		path string
		body string
	}{
		{"Debug/EnableVSync", `{"value": "yes"}`},
		{"Debug/EnableVSync", `{"value": 1}`},
		{"Render/MSAASamples", `{"value": 1.5}`},
		{"Render/MSAASamples", `{"value": "8"}`},
		{"Render/FrameBudget", `{"value": "soon"}`},
		{"Render/Title", `{"value": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.path+tt.body, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+"/api/v1/values/"+tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

			e := decode[ErrorResponse](t, body)
			assert.Equal(t, CodeTypeMismatch, e.Error)
			assert.Equal(t, tt.path, e.Path)
			assert.NotEmpty(t, e.Expected)
			assert.NotEmpty(t, e.RequestID)
		})
	}
	assert.Equal(t, before, reg.Revision())
}

func TestSetValueBadBody(t *testing.T) {
	srv := newTestServer(t, testRegistry(t), Options{})

	for _, body := range []string{"", "{", `{"other": 1}`} {
		resp, raw := do(t, http.MethodPut, srv.URL+"/api/v1/values/Debug/EnableVSync", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, CodeInvalidRequest, decode[ErrorResponse](t, raw).Error)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, testRegistry(t), Options{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/values/Debug/Nope", ""},
		{http.MethodGet, "/api/v1/values/Debug", ""},
		{http.MethodPut, "/api/v1/values/Nope/X", `{"value": true}`},
		{http.MethodGet, "/api/v1/groups/Debug/EnableVSync", ""},
		{http.MethodPost, "/api/v1/reset/Render/Nope", ""},
		{http.MethodGet, "/nowhere", ""},
	} {
		resp, body := do(t, tc.method, srv.URL+tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, tc.path)
		assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, body).Error, tc.path)
	}
}

func TestGroupEnumeration(t *testing.T) {
	srv := newTestServer(t, testRegistry(t), Options{})

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/groups", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	root := decode[GroupResponse](t, body)
	assert.Equal(t, 2, root.Children)
	require.Len(t, root.Entries, 2)
	assert.Equal(t, "Debug", root.Entries[0].Name)
	assert.Equal(t, settings.EntryGroup, root.Entries[0].Type)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/groups/Render", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decode[map[string]any](t, body)
	assert.Equal(t, "Rendering", g["displayName"])

	var names []string
	for _, e := range g["entries"].([]any) {
		m := e.(map[string]any)
		assert.Equal(t, "value", m["type"])
		names = append(names, m["name"].(string))
	}
	assert.Equal(t, []string{"MSAASamples", "Exposure", "FrameBudget", "Title"}, names)
}

func TestTree(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Set("Render/FrameBudget", 8*time.Millisecond))
	srv := newTestServer(t, reg, Options{})

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/settings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tree := decode[map[string]any](t, body)
	assert.EqualValues(t, 1, tree["revision"])

	groups := tree["children"].([]any)
	require.Len(t, groups, 2)
	render := groups[1].(map[string]any)
	assert.Equal(t, "Render", render["name"])

	budget := render["children"].([]any)[2].(map[string]any)
	assert.Equal(t, "FrameBudget", budget["name"])
	cur := budget["current"].(map[string]any)
	assert.Equal(t, "8ms", cur["value"])
	assert.Equal(t, "16ms", cur["default"])
	assert.Equal(t, false, cur["isDefault"])
}

func TestReset(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Set("Debug/EnableVSync", false))
	require.NoError(t, reg.Set("Render/Title", "x"))
	srv := newTestServer(t, reg, Options{})

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/reset/Debug/EnableVSync", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, true, decode[map[string]any](t, body)["value"])

	resp, body = do(t, http.MethodPost, srv.URL+"/api/v1/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rr := decode[ResetResponse](t, body)
	assert.Equal(t, []string{"Render/Title"}, rr.Reset)
	assert.Empty(t, reg.Overrides())
}

func TestConstantsAndOverrides(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Set("Render/Exposure", 3.0))
	srv := newTestServer(t, reg, Options{})

	_, body := do(t, http.MethodGet, srv.URL+"/api/v1/constants", "")
	consts := decode[[]ValueResponse](t, body)
	require.Len(t, consts, 1)
	assert.Equal(t, "Render/MSAASamples", consts[0].Path)

	_, body = do(t, http.MethodGet, srv.URL+"/api/v1/overrides", "")
	ov := decode[[]ValueResponse](t, body)
	require.Len(t, ov, 1)
	assert.Equal(t, "Render/Exposure", ov[0].Path)
	assert.Equal(t, 3.0, ov[0].Value)
}

func TestSave(t *testing.T) {
	reg := testRegistry(t)

	srv := newTestServer(t, reg, Options{})
	resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/save", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	mem := store.NewMemoryStore()
	p := store.NewPersister(reg, mem, time.Hour)
	srv = newTestServer(t, reg, Options{Persister: p})

	require.NoError(t, reg.Set("Render/MSAASamples", 2))
	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	sr := decode[SaveResponse](t, body)
	assert.Equal(t, "memory", sr.Backend)
	assert.Equal(t, reg.Revision(), sr.Revision)

	records, err := mem.Load(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Render/MSAASamples", records[0].Path)
	assert.Equal(t, "2", records[0].Value)
}

type failingStore struct{ *store.MemoryStore }

func (failingStore) Save(context.Context, []store.Record) error { return errors.New("disk full") }

func TestSaveFailures(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Set("Title", "unsaved"))

	p := store.NewPersister(reg, failingStore{store.NewMemoryStore()}, time.Hour)
	srv := newTestServer(t, reg, Options{Persister: p})
	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/save", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	problem := decode[ErrorResponse](t, body)
	assert.Equal(t, CodeInternal, problem.Error)
	assert.NotEmpty(t, problem.RequestID)

	closed := store.NewPersister(reg, store.NewMemoryStore(), time.Hour)
	require.NoError(t, closed.Close(t.Context()))
	srv = newTestServer(t, reg, Options{Persister: closed})
	resp, body = do(t, http.MethodPost, srv.URL+"/api/v1/save", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, CodeUnavailable, decode[ErrorResponse](t, body).Error)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	srv := newTestServer(t, testRegistry(t), Options{
		Health: health.NewManager("test"),
		Config: config.APIConfig{MetricsEnabled: true},
	})

	resp, _ := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, srv.URL+"/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	do(t, http.MethodGet, srv.URL+"/api/v1/values/Debug/EnableVSync", "")
	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "appsettings_http_request_duration_seconds")
}

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		kind   settings.Kind
		raw    string
		want   any
		isText bool
	}{
		{settings.KindInt, `12`, int64(12), false},
		{settings.KindInt, `1.5`, 1.5, false},
		{settings.KindFloat, `3`, 3.0, false},
		{settings.KindFloat, `"NaN"`, "NaN", true},
		{settings.KindDuration, `"1s"`, "1s", true},
		{settings.KindString, `"1s"`, "1s", false},
		{settings.KindBool, `true`, true, false},
		{settings.KindBool, `7`, 7.0, false},
	}
	for _, tt := range tests {
		got, isText, err := decodeInput(tt.kind, json.RawMessage(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.isText, isText, tt.raw)
	}
}

func TestSettingPathIsNFC(t *testing.T) {
	reg, err := settings.New(
		settings.Group("Café", settings.GroupMeta{},
			settings.Bool("On", true, settings.Meta{}),
		),
	)
	require.NoError(t, err)
	srv := newTestServer(t, reg, Options{})

	// "e" followed by a combining acute accent.
	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/values/Cafe%CC%81/On", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Café/On", decode[ValueResponse](t, body).Path)
}
