package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a scenario file.
type Format string

// The supported scenario encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the scenario encoding from the file extension.
func FormatFromPath(filePath string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Errorf("cannot tell the scenario format of %q, expected a .json, .yaml or .yml file", filePath)
	}
}

// Read reads a scenario from the given file. Environment variable references such as ${SEED} are expanded
// before the file is decoded.
func Read(filePath string) (*Scenario, error) {
	format, err := FormatFromPath(filePath)
	if err != nil {
		return nil, err
	}
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	scenario, err := FromReader(bytes.NewReader(buf), format)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", filePath)
	}
	if scenario.Name == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	return scenario, nil
}

// FromReader decodes a scenario in the given format. Unknown fields are rejected.
func FromReader(r io.Reader, format Format) (*Scenario, error) {
	scenario := &Scenario{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(scenario); err != nil {
			return nil, errors.Wrap(err, "failed to decode Scenario from json")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(scenario); err != nil {
			return nil, errors.Wrap(err, "failed to decode Scenario from yaml")
		}
	default:
		return nil, errors.Errorf("unknown scenario format %q", format)
	}
	return scenario, nil
}

// ReadProblem reads the scenario file and builds it.
func ReadProblem(filePath string) (*Problem, error) {
	scenario, err := Read(filePath)
	if err != nil {
		return nil, err
	}
	return scenario.Build()
}
