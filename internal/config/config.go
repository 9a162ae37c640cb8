// Package config loads drillstore settings from YAML or TOML files.
//
// Settings resolve in three layers: built-in defaults, then the config
// file, then command-line flags. Files are decoded strictly (unknown keys
// are errors) and the merged result is checked against an embedded CUE
// schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Config is the full set of drillstore settings.
type Config struct {
	Database Database `json:"database" yaml:"database" toml:"database"`
	History  History  `json:"history" yaml:"history" toml:"history"`
	Defaults Defaults `json:"defaults" yaml:"defaults" toml:"defaults"`
	Logging  Logging  `json:"logging" yaml:"logging" toml:"logging"`
}

// Database locates the document file.
type Database struct {
	Path          string `json:"path" yaml:"path" toml:"path"`
	BusyTimeoutMS int    `json:"busy_timeout_ms" yaml:"busy_timeout_ms" toml:"busy_timeout_ms"`
}

// History bounds the undo log.
type History struct {
	GroupLimit int64 `json:"group_limit" yaml:"group_limit" toml:"group_limit"`
}

// Defaults is where marchers stand when nothing else places them.
type Defaults struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Logging configures the CLI logger.
type Logging struct {
	Level string `json:"level" yaml:"level" toml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database: Database{Path: "drill.db", BusyTimeoutMS: 5000},
		History:  History{GroupLimit: 500},
		Defaults: Defaults{X: 100, Y: 100},
		Logging:  Logging{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".toml":
		err = decodeTOML(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported format %q (want .yaml, .yml or .toml)", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks the settings against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		path := strings.Join(e.Path(), ".")
		format, args := e.Msg()
		msgs[i] = fmt.Sprintf("%s: %s", path, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
