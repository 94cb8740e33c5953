// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package datavalues_test

import (
	"os"
	"path/filepath"
	"testing"

	"carvel.dev/ytpl/pkg/datavalues"
	"carvel.dev/ytpl/pkg/orderedmap"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func asYAML(t *testing.T, vals *orderedmap.Map) string {
	bs, err := yaml.Marshal(vals)
	require.NoError(t, err)
	return string(bs)
}

func writeFile(t *testing.T, dir, name, contents string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestValuesFromFilesAreMerged(t *testing.T) {
	dir := t.TempDir()

	flags := datavalues.DataValuesFlags{
		Files: []string{
			writeFile(t, dir, "a.yml", "app:\n  name: web\n  port: 80\nlist: [1, 2]\n"),
			writeFile(t, dir, "b.json", `{"app": {"port": 8080, "debug": true}}`),
			writeFile(t, dir, "c.toml", "[app]\nreplicas = 3\n"),
			writeFile(t, dir, "d.env", "app__owner=ops\nREGION=eu\n"),
		},
	}

	vals, err := flags.Values()
	require.NoError(t, err)

	expected := `app:
    name: web
    port: 8080
    debug: true
    replicas: 3
    owner: ops
list:
    - 1
    - 2
REGION: eu
`
	assert.Equal(t, expected, asYAML(t, vals))
}

func TestValuesPrecedence(t *testing.T) {
	dir := t.TempDir()

	flags := datavalues.DataValuesFlags{
		Files:          []string{writeFile(t, dir, "vals.yml", "app:\n  name: from-file\n  port: 80\n")},
		EnvFromStrings: []string{"DV"},
		EnvFromYAML:    []string{"DVY"},
		KVsFromStrings: []string{"app.name=from-kv"},
		KVsFromYAML:    []string{"app.tags=[a, b]"},
		KVsFromFiles:   []string{"app.motd=" + writeFile(t, dir, "motd.txt", "hello")},
		EnvironFunc: func() []string {
			return []string{"DV_app__name=from-env", "DV_app__port=81", "DVY_app__debug=true", "OTHER_x=1"}
		},
	}

	vals, err := flags.Values()
	require.NoError(t, err)

	expected := `app:
    name: from-kv
    port: "81"
    debug: true
    tags:
        - a
        - b
    motd: hello
`
	assert.Equal(t, expected, asYAML(t, vals))
}

func TestValuesFromRealEnv(t *testing.T) {
	t.Setenv("YTPLTEST_greeting__text", "hi")

	flags := datavalues.DataValuesFlags{EnvFromStrings: []string{"YTPLTEST"}}
	vals, err := flags.Values()
	require.NoError(t, err)

	bs, err := json.Marshal(vals)
	require.NoError(t, err)
	assert.Equal(t, `{"greeting":{"text":"hi"}}`, string(bs))
}

func TestValuesErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		desc  string
		flags datavalues.DataValuesFlags
		err   string
	}{
		{
			desc:  "kv without value",
			flags: datavalues.DataValuesFlags{KVsFromStrings: []string{"novalue"}},
			err:   "Extracting data value from KV: Expected format key=value",
		},
		{
			desc:  "invalid yaml kv",
			flags: datavalues.DataValuesFlags{KVsFromYAML: []string{"a=[1"}},
			err:   "Deserializing value for key 'a': Deserializing YAML value",
		},
		{
			desc:  "conflicting keys",
			flags: datavalues.DataValuesFlags{KVsFromStrings: []string{"a=1", "a.b=2"}},
			err:   "Expected key 'a.b' to not conflict with other data values at piece 'a'",
		},
		{
			desc:  "missing kv file",
			flags: datavalues.DataValuesFlags{KVsFromFiles: []string{"a=" + filepath.Join(dir, "missing")}},
			err:   "Extracting data value from file: Reading file",
		},
		{
			desc:  "unknown file format",
			flags: datavalues.DataValuesFlags{Files: []string{writeFile(t, dir, "vals.txt", "a: 1")}},
			err:   "Unknown data values file format",
		},
		{
			desc:  "non-map file",
			flags: datavalues.DataValuesFlags{Files: []string{writeFile(t, dir, "list.yml", "- 1\n")}},
			err:   "Expected yaml data values to be a map, but was []interface {}",
		},
		{
			desc:  "invalid json file",
			flags: datavalues.DataValuesFlags{Files: []string{writeFile(t, dir, "bad.json", "{")}},
			err:   "Unmarshaling json",
		},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := tc.flags.Values()
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestParseFileHandlesEmptyDocuments(t *testing.T) {
	for _, format := range []datavalues.FileFormat{datavalues.FormatYAML, datavalues.FormatJSON, datavalues.FormatTOML, datavalues.FormatDotenv} {
		vals, err := datavalues.ParseFile(format, []byte(""))
		require.NoError(t, err, "format %s", format)
		assert.Equal(t, 0, vals.Len(), "format %s", format)
	}
}

func TestNewFileFormatFromPath(t *testing.T) {
	for path, format := range map[string]datavalues.FileFormat{
		"a.yml":          datavalues.FormatYAML,
		"dir/a.YAML":     datavalues.FormatYAML,
		"a.json":         datavalues.FormatJSON,
		"a.toml":         datavalues.FormatTOML,
		"prod.env":       datavalues.FormatDotenv,
		"/some/dir/.env": datavalues.FormatDotenv,
	} {
		actual, err := datavalues.NewFileFormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, format, actual, path)
	}
}

func TestParseFileKeepsJSONIntegers(t *testing.T) {
	vals, err := datavalues.ParseFile(datavalues.FormatJSON, []byte(`{"port": 8080, "ratio": 0.5, "ids": [1, 2]}`))
	require.NoError(t, err)

	port, _ := vals.Get("port")
	assert.Equal(t, int64(8080), port)

	ratio, _ := vals.Get("ratio")
	assert.Equal(t, 0.5, ratio)

	ids, _ := vals.Get("ids")
	assert.Equal(t, []interface{}{int64(1), int64(2)}, ids)
}
