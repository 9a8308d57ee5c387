package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	J "cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaFile string

//go:embed default.yaml
var DEFAULT []byte

// Lists configuration files, separated like PATH
const ENV_CONFIG = "SNAKE_CONFIG"

var (
	ErrUnknownFormat = errors.New("not in a valid format")
)

func extract(ctx *cue.Context, path string, data []byte) (cue.Value, error) {
	switch filepath.Ext(path) {
	case ".json":
		expr, err := J.Extract(path, data)
		if err != nil {
			return cue.Value{}, err
		}
		value := ctx.BuildExpr(expr)
		return value, value.Err()
	case ".yaml", ".yml":
		file, err := yaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, err
		}
		value := ctx.BuildFile(file)
		return value, value.Err()
	}

	return cue.Value{}, ErrUnknownFormat
}

func readFile(ctx *cue.Context, path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, err
	}
	return extract(ctx, path, data)
}

// Paths returns the files named by SNAKE_CONFIG, if any.
func Paths() []string {
	value := os.Getenv(ENV_CONFIG)
	if value == "" {
		return nil
	}

	paths := make([]string, 0)
	for _, path := range filepath.SplitList(value) {
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// Process reads the provided configuration files in order and unifies them
// with the schema, which fills in anything they leave out. If no files are
// provided, the default configuration is used.
func Process(configPaths []string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaFile)
	if err := schema.Err(); err != nil {
		return nil, err
	}

	if len(configPaths) == 0 {
		value, err := extract(ctx, "<default>.yaml", DEFAULT)
		if err != nil {
			return nil, err
		}

		schema = schema.Unify(value)
		if err := schema.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config file: %w", err)
		}
	}

	for _, path := range configPaths {
		value, err := readFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("could not process config file %s: %w", path, err)
		}

		schema = schema.Unify(value)
		if err := schema.Validate(); err != nil {
			return nil, fmt.Errorf("config file %s is not valid: %w", path, err)
		}
	}

	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("could not aggregate config: %w", err)
	}

	config := Config{}
	err = json.Unmarshal(data, &config)
	return &config, err
}
