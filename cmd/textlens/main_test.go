package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/storage"
)

const testConfig = `
annotate:
  model: simple
  workers: 2
terms:
  min_df: 1
  max_df: 1.0
`

const testPosts = `{"_id":"1","name":"cat","description":"cats are great pets"}
{"_id":"2","name":"dog","description":"dogs are great pets"}
{"_id":"3","name":"physics","description":"quantum physics is hard"}
{"_id":"4","name":"empty","description":null}
`

// fixture writes a config and an input file into a temp dir and returns their paths.
func fixture(t *testing.T) (configPath, inputPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "textlens.yaml")
	inputPath = filepath.Join(dir, "posts.ndjson")
	if err := os.WriteFile(configPath, []byte(testConfig), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inputPath, []byte(testPosts), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath, inputPath
}

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after input are moved first",
			args:     []string{"posts.ndjson", "-ref", "3"},
			expected: []string{"-ref", "3", "posts.ndjson"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-ref", "3", "posts.ndjson"},
			expected: []string{"-ref", "3", "posts.ndjson"},
		},
		{
			name:     "input only returns unchanged",
			args:     []string{"posts.ndjson"},
			expected: []string{"posts.ndjson"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" name, description ,,"); !reflect.DeepEqual(got, []string{"name", "description"}) {
		t.Errorf("splitList = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&apperr.InputFormatError{Line: 2, Err: errors.New("bad")}, 3},
		{apperr.Configuration("min_df"), 4},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("row 9")), 5},
		{errors.New("other"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLoadConfig_prefersCwdConfigWhenNoPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, defaultConfigName)
	if err := os.WriteFile(configPath, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd textlens.yaml")
	}
}

func TestLoadConfig_defaultsWithoutFile(t *testing.T) {
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want built-in defaults", resolved)
	}
	if cfg.Columns.Text != "description" {
		t.Errorf("text column = %q", cfg.Columns.Text)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	configPath, _ := fixture(t)
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Annotate.Model != "simple" || cfg.Terms.MinDF != 1 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestRunFlatten(t *testing.T) {
	configPath, inputPath := fixture(t)
	var out bytes.Buffer
	err := runFlatten(context.Background(), []string{inputPath, "-config", configPath, "-format", "json", "-columns", "name"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d rows, want 4:\n%s", len(lines), out.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first["name"] != "cat" {
		t.Errorf("first row = %v", first)
	}
	if _, ok := first["_id"]; ok {
		t.Error("reserved key _id should be dropped")
	}
}

func TestRunFlatten_badInput(t *testing.T) {
	configPath, inputPath := fixture(t)
	if err := os.WriteFile(inputPath, []byte("{\"a\":1}\nnot json\n"), 0600); err != nil {
		t.Fatal(err)
	}
	err := runFlatten(context.Background(), []string{"-config", configPath, inputPath}, &bytes.Buffer{})
	var formatErr *apperr.InputFormatError
	if !errors.As(err, &formatErr) || formatErr.Line != 2 {
		t.Errorf("err = %v, want input format error on line 2", err)
	}
}

func TestRunSimilar(t *testing.T) {
	configPath, inputPath := fixture(t)
	var out bytes.Buffer
	err := runSimilar(context.Background(), []string{inputPath, "-config", configPath, "-ref", "0", "-limit", "1", "-format", "json"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Reference int `json:"reference"`
		Neighbors []struct {
			Index int `json:"index"`
		} `json:"neighbors"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if len(decoded.Neighbors) != 1 || decoded.Neighbors[0].Index != 1 {
		t.Errorf("neighbors = %+v, want row 1 only", decoded.Neighbors)
	}
}

func TestRunSimilar_requiresRef(t *testing.T) {
	configPath, inputPath := fixture(t)
	err := runSimilar(context.Background(), []string{"-config", configPath, inputPath}, &bytes.Buffer{})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestRunTerms_save(t *testing.T) {
	configPath, inputPath := fixture(t)
	dbPath := filepath.Join(t.TempDir(), "results.db")
	var out bytes.Buffer
	err := runTerms(context.Background(), []string{inputPath, "-config", configPath, "-save", "-db", dbPath}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Row 0:") || strings.Contains(out.String(), "Row 3:") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	runs, err := store.ListRuns(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Rows != 4 {
		t.Fatalf("runs = %+v", runs)
	}
	terms, err := store.TopTerms(ctx, runs[0].ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) == 0 {
		t.Error("no terms stored for row 2")
	}
}

func TestRunTerms_missingRow(t *testing.T) {
	configPath, inputPath := fixture(t)
	err := runTerms(context.Background(), []string{inputPath, "-config", configPath, "-row", "3"}, &bytes.Buffer{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found for the null-text row", err)
	}
}

func TestRunExport(t *testing.T) {
	configPath, inputPath := fixture(t)
	xlsxPath := filepath.Join(t.TempDir(), "results.xlsx")
	var out bytes.Buffer
	err := runExport(context.Background(), []string{inputPath, "-config", configPath, "-out", xlsxPath, "-ref", "0"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	want := []string{storage.SheetRecords, storage.SheetNeighbors, storage.SheetTerms}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, want) {
		t.Errorf("sheets = %v, want %v", got, want)
	}
}

func TestRunConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textlens.yaml")
	var out bytes.Buffer
	if err := runConfig([]string{"init", path}, &out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if err := runConfig([]string{"init", path}, &out); err == nil {
		t.Error("second init without --force should fail")
	}
	if err := runConfig([]string{"init", "-force", path}, &out); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out.Reset()
	if err := runConfig([]string{"show", "-config", path}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "max_features: 1000") {
		t.Errorf("show output missing defaults:\n%s", out.String())
	}
}
