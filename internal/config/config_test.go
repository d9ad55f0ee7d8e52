package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/record"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Database: "timeline.db",
		Driver:   "sqlite3",
		Listen:   "127.0.0.1:8080",
		Log:      LogConfig{Level: "info"},
		Paging: PagingConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			OrderField:      "updated_at",
		},
		Collections: []string{},
	}, cfg)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "timeline.db", cfg.Database)
}

func TestLoad_CUEFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.cue")
	src := `
database: ":memory:"
log: level: "debug"
paging: {
	default_page_size: 5
	order_field: "created_at"
}
collections: ["notes", "tasks"]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Database)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, 5, cfg.Paging.DefaultPageSize)
	assert.Equal(t, 100, cfg.Paging.MaxPageSize)
	assert.Equal(t, record.FieldCreatedAt, cfg.OrderField())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{"notes", "tasks"}, cfg.Collections)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.json")
	src := `{"listen": ":9000", "paging": {"max_page_size": 50}}`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 50, cfg.Paging.MaxPageSize)
	assert.Equal(t, 20, cfg.Paging.DefaultPageSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBytes_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", `database: `},
		{"unknown field", `colour: "blue"`},
		{"unknown nested field", `paging: page_size: 10`},
		{"empty database", `database: ""`},
		{"unknown driver", `driver: "postgres"`},
		{"zero default page size", `paging: default_page_size: 0`},
		{"max below default", `paging: {default_page_size: 50, max_page_size: 10}`},
		{"default above implicit max", `paging: default_page_size: 500`},
		{"unknown order field", `paging: order_field: "title"`},
		{"unknown log level", `log: level: "trace"`},
		{"bad collection name", `collections: ["has space"]`},
		{"wrong type", `listen: 8080`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.src), "test.cue")
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for level, want := range tests {
		cfg := &Config{Log: LogConfig{Level: level}}
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}

func TestAllowsCollection(t *testing.T) {
	open := &Config{}
	assert.True(t, open.AllowsCollection("anything"))

	restricted := &Config{Collections: []string{"notes"}}
	assert.True(t, restricted.AllowsCollection("notes"))
	assert.False(t, restricted.AllowsCollection("tasks"))
}
