// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/engine"
	"carvel.dev/ytpl/pkg/files"
	"carvel.dev/ytpl/pkg/metrics"
	"carvel.dev/ytpl/pkg/orderedmap"
	"carvel.dev/ytpl/pkg/server"
	"carvel.dev/ytpl/pkg/template"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	stderr *bytes.Buffer
}

func newTestServer(t *testing.T) testServer {
	fsys := fstest.MapFS{
		"greeting.txt":       {Data: []byte(`(@= include("partials/name.txt") @), (@= values.app.env @)!`)},
		"partials/name.txt":  {Data: []byte(`Hello (@= values.app.name @)`)},
		"broken.txt":         {Data: []byte(`(@ x`)},
		"failing.txt":        {Data: []byte(`(@= values.nope @)`)},
		"missing-inc.txt":    {Data: []byte(`(@= include("nope.txt") @)`)},
		"partials/ignore.md": {Data: []byte(`unused`)},
	}

	m := metrics.New()

	defaults := orderedmap.NewMap()
	app := orderedmap.NewMap()
	app.Set("name", "web")
	app.Set("env", "dev")
	defaults.Set("app", app)

	stderr := &bytes.Buffer{}

	srv := server.NewServer(server.ServerOpts{
		Engine: engine.New(engine.Opts{
			Loader:   files.NewFSLoader(fsys),
			Observer: m,
			Cache:    template.NewSyncTemplateCache(),
		}),
		Metrics: m,
		UI:      ui.NewCustomWriterTTY(false, &bytes.Buffer{}, stderr),
		Values:  defaults,
	})

	httpServer := httptest.NewServer(srv.Mux())
	t.Cleanup(httpServer.Close)

	return testServer{httpServer, stderr}
}

func post(t *testing.T, url, body string) (int, string) {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(respBody)
}

func TestRenderUsesDefaultValues(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv.URL+"/render/greeting.txt", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello web, dev!", body)
}

func TestRenderMergesRequestValues(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv.URL+"/render/greeting.txt", `{"app": {"env": "prod"}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello web, prod!", body)

	// defaults are not modified by previous requests
	status, body = post(t, srv.URL+"/render/greeting.txt", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello web, dev!", body)
}

func TestRenderFailures(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path   string
		body   string
		status int
		kind   string
		err    string
	}{
		{"/render/greeting.txt", `[1]`, http.StatusBadRequest, "other", "Expected request body to be a JSON object"},
		{"/render/greeting.txt", `{`, http.StatusBadRequest, "other", "Unmarshaling request body"},
		{"/render/unknown.txt", ``, http.StatusNotFound, "load", "Loading template 'unknown.txt'"},
		{"/render/broken.txt", ``, http.StatusUnprocessableEntity, "invalid_state", "Missing code closing"},
		{"/render/failing.txt", ``, http.StatusUnprocessableEntity, "evaluation", "failing.txt:1"},
		{"/render/missing-inc.txt", ``, http.StatusNotFound, "load", "Loading template 'nope.txt'"},
		{"/render/../secret.txt", ``, http.StatusNotFound, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			status, body := post(t, srv.URL+tc.path, tc.body)
			assert.Equal(t, tc.status, status, "body: %s", body)

			if tc.kind == "" {
				return
			}

			var resp map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &resp), "body: %s", body)
			assert.Equal(t, tc.kind, resp["kind"])
			assert.Contains(t, resp["error"], tc.err)
		})
	}

	assert.Contains(t, srv.stderr.String(), "Error: ")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	status, _ := post(t, srv.URL+"/render/greeting.txt", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = post(t, srv.URL+"/render/greeting.txt", "")
	require.Equal(t, http.StatusOK, status)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(body), `ytpl_templates_rendered_total{result="ok"} 4`)
	assert.Contains(t, string(body), `ytpl_templates_parsed_total{result="ok"} 2`)
	assert.Contains(t, string(body), `ytpl_template_cache_hits_total 2`)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/render/*",status="200"} 2`)
}

func TestRenderRequiresName(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv.URL+"/render/", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "Expected template name in path")
}
