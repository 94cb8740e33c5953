// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package datavalues

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"carvel.dev/ytpl/pkg/orderedmap"
	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

type FileFormat string

const (
	FormatYAML   FileFormat = "yaml"
	FormatJSON   FileFormat = "json"
	FormatTOML   FileFormat = "toml"
	FormatDotenv FileFormat = "env"
)

// NewFileFormatFromPath picks the format by file extension.
func NewFileFormatFromPath(path string) (FileFormat, error) {
	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".env":
		return FormatDotenv, nil
	}
	if base == ".env" {
		return FormatDotenv, nil
	}
	return "", fmt.Errorf("Unknown data values file format for '%s' (expected .yml, .yaml, .json, .toml or .env)", path)
}

// ParseFile decodes data values of the given format into an ordered map.
// YAML keeps document key order; other formats have their keys sorted.
func ParseFile(format FileFormat, data []byte) (*orderedmap.Map, error) {
	var val interface{}
	var err error

	switch format {
	case FormatYAML:
		val, err = orderedmap.FromYAML(data)

	case FormatJSON:
		var raw interface{}
		if len(bytes.TrimSpace(data)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			err = dec.Decode(&raw)
		}
		val = orderedmap.Conversion{Object: jsonNumbers(raw)}.FromUnorderedMaps()

	case FormatTOML:
		raw := map[string]interface{}{}
		_, err = toml.Decode(string(data), &raw)
		val = orderedmap.Conversion{Object: raw}.FromUnorderedMaps()

	case FormatDotenv:
		return parseDotenv(data)

	default:
		return nil, fmt.Errorf("Unknown data values format '%s'", format)
	}
	if err != nil {
		return nil, fmt.Errorf("Unmarshaling %s: %s", format, err)
	}

	switch typedVal := val.(type) {
	case nil:
		return orderedmap.NewMap(), nil
	case *orderedmap.Map:
		return typedVal, nil
	default:
		return nil, fmt.Errorf("Expected %s data values to be a map, but was %T", format, val)
	}
}

// parseDotenv nests keys on '__' the same way prefixed env vars are nested.
func parseDotenv(data []byte) (*orderedmap.Map, error) {
	vals, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Unmarshaling %s: %s", FormatDotenv, err)
	}

	flat := orderedmap.NewMap()
	for _, key := range sortedKeys(vals) {
		flat.Set(strings.Replace(key, "__", ".", -1), vals[key])
	}
	return convertIntoNestedMap([]*orderedmap.Map{flat})
}

// jsonNumbers keeps integral JSON numbers as int64 so that they do not
// turn into floats inside templates.
func jsonNumbers(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case map[string]interface{}:
		for k, v := range typedVal {
			typedVal[k] = jsonNumbers(v)
		}
		return typedVal
	case []interface{}:
		for i, v := range typedVal {
			typedVal[i] = jsonNumbers(v)
		}
		return typedVal
	case json.Number:
		if i, err := typedVal.Int64(); err == nil {
			return i
		}
		if f, err := typedVal.Float64(); err == nil {
			return f
		}
		return typedVal.String()
	default:
		return val
	}
}
