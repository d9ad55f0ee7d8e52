// Package config loads timeline configuration.
//
// Configuration files are CUE (plain JSON is valid CUE). A file is unified
// with the embedded #Config schema, which supplies defaults and rejects
// unknown fields and out-of-range values, then decoded into Config.
//
// Precedence, lowest first: schema defaults, the file, TIMELINE_*
// environment variables, command-line flags.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/timeline/internal/record"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Database    string       `json:"database"`
	Driver      string       `json:"driver"`
	Listen      string       `json:"listen"`
	Log         LogConfig    `json:"log"`
	Paging      PagingConfig `json:"paging"`
	Collections []string     `json:"collections"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `json:"level"`
}

// PagingConfig controls page sizes and ordering.
type PagingConfig struct {
	DefaultPageSize int    `json:"default_page_size"`
	MaxPageSize     int    `json:"max_page_size"`
	OrderField      string `json:"order_field"`
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	return LoadBytes(nil, "default")
}

// Load reads and validates the configuration file at path, then applies
// environment overrides. An empty path starts from the defaults.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = Default()
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		cfg, err = LoadBytes(data, path)
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBytes validates CUE or JSON source against the schema. filename is
// used in error positions only.
func LoadBytes(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	def, err := schema(ctx)
	if err != nil {
		return nil, err
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}

	value := def.Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", filename, err)
	}
	if cfg.Collections == nil {
		cfg.Collections = []string{}
	}
	return &cfg, nil
}

// Validate checks an already decoded Config against the schema, e.g. after
// overrides were applied to it.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	def, err := schema(ctx)
	if err != nil {
		return err
	}
	if err := def.Unify(ctx.Encode(c)).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// schema compiles the embedded schema and returns #Config.
func schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

// OrderField returns the configured order field.
func (c *Config) OrderField() record.Field {
	return record.Field(c.Paging.OrderField)
}

// SlogLevel maps log.level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
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

// AllowsCollection reports whether name may be served. An empty allow-list
// allows every collection.
func (c *Config) AllowsCollection(name string) bool {
	return len(c.Collections) == 0 || slices.Contains(c.Collections, name)
}
