package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uems/internal/config"
	"uems/internal/log"
	"uems/internal/sheets"
	"uems/internal/sheets/memory"
)

const roomsFixture = `[
	{"room_number":"1.01","area_m2":12.5,"type":"Office","suite":"A"},
	{"room_number":"1.02","area_m2":30,"type":"Lab","suite":"B"}
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api_cfi_rooms.json"), []byte(roomsFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api_cfi_meter.json"), []byte(`[{"location":"CfI-DB-1W","Jan_2023":10}]`), 0o644))
	return &config.Config{
		Port:              "8081",
		DataBackend:       config.BackendMemory,
		DataDirectory:     dir,
		SQLiteDBPath:      filepath.Join(t.TempDir(), "uems.db"),
		SnapshotRetention: time.Hour,
		CacheSize:         16,
		CacheTTL:          time.Minute,
		RefreshInterval:   time.Minute,
		LogLevel:          "error",
		LogFormat:         "text",
	}
}

func run(t *testing.T, opts Options, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(opts)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func staticConfig(cfg *config.Config) Options {
	return Options{LoadConfig: func() *config.Config { return cfg }}
}

func TestViewsCommand(t *testing.T) {
	out, err := run(t, staticConfig(testConfig(t)), "views")
	require.NoError(t, err)
	assert.Contains(t, out, "VIEW")
	assert.Contains(t, out, "meter,rooms")
	assert.True(t, strings.Index(out, "auckland") < strings.Index(out, "cfi"), "views keep tab order")
}

func TestExportCommand(t *testing.T) {
	cfg := testConfig(t)
	target := filepath.Join(t.TempDir(), "rooms.xlsx")

	out, err := run(t, staticConfig(cfg), "export", "cfi", "rooms", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 table(s)")
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	whole := filepath.Join(t.TempDir(), "cfi.xlsx")
	out, err = run(t, staticConfig(cfg), "export", "cfi", "-o", whole)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 table(s)")
}

func TestExportCommand_Errors(t *testing.T) {
	cfg := testConfig(t)

	_, err := run(t, staticConfig(cfg), "export", "nope", "-o", filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)

	_, err = run(t, staticConfig(cfg), "export", "cfi", "rooms", "--month", "Smarch")
	assert.ErrorContains(t, err, "invalid month")

	cfg.DataBackend = "sheets"
	_, err = run(t, staticConfig(cfg), "export", "cfi", "rooms")
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestPublishSheetCommand_DryRun(t *testing.T) {
	out, err := run(t, staticConfig(testConfig(t)), "publish-sheet", "cfi", "rooms", "--dry-run")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Room Number")
	assert.True(t, strings.HasPrefix(lines[1], "1.01\t"))
}

func TestPublishSheetCommand(t *testing.T) {
	cfg := testConfig(t)
	pub := memory.New()
	opts := staticConfig(cfg)
	opts.NewPublisher = func(context.Context, *log.Logger) (sheets.TablePublisher, error) { return pub, nil }

	_, err := run(t, opts, "publish-sheet", "cfi", "rooms")
	assert.ErrorContains(t, err, "GOOGLE_SPREADSHEET_ID")

	cfg.GoogleSpreadsheetID = "sheet-id"
	out, err := run(t, opts, "publish-sheet", "cfi", "rooms", "--sheet", "Rooms")
	require.NoError(t, err)
	assert.Contains(t, out, `Published 2 row(s) to sheet "Rooms"`)

	grid, ok := pub.Sheet("Rooms")
	require.True(t, ok)
	assert.Len(t, grid, 3)
}

func TestRefreshCommand(t *testing.T) {
	out, err := run(t, staticConfig(testConfig(t)), "refresh", "cfi", "--warm")
	require.NoError(t, err)
	assert.Contains(t, out, "Refreshed 2 path(s)")
}

func TestMigrateAndSnapshotCommands(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "nested", "uems.db")

	out, err := run(t, staticConfig(cfg), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied")

	out, err = run(t, staticConfig(cfg), "snapshot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")

	out, err = run(t, staticConfig(cfg), "snapshot", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 snapshot(s)")
}
