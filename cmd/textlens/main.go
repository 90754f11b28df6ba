// Package main is the textlens CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/cli"
	"github.com/hyperjump/textlens/internal/config"
	"github.com/hyperjump/textlens/internal/models"
	"github.com/hyperjump/textlens/internal/pipeline"
	"github.com/hyperjump/textlens/internal/records"
	"github.com/hyperjump/textlens/internal/similarity"
	"github.com/hyperjump/textlens/internal/storage"
	"github.com/hyperjump/textlens/pkg/utils"
)

var version = "dev"

// defaultConfigName is looked up in the current directory when --config is not given.
const defaultConfigName = "textlens.yaml"

// loadConfig loads config from path. When path is empty it uses textlens.yaml from
// the current directory if present, and the built-in defaults otherwise.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, defaultConfigName)
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		cfg, err := config.Default()
		if err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// argsReorder moves any flags (and their values) that appear after the positional
// input path to the front so that flag.Parse() sees them. Go's flag package stops
// at the first non-flag argument, so "textlens similar posts.ndjson -ref 3" would
// otherwise leave -ref unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, args := os.Args[1], os.Args[2:]
	var err error
	switch command {
	case "flatten":
		err = runFlatten(ctx, args, os.Stdout)
	case "similar":
		err = runSimilar(ctx, args, os.Stdout)
	case "terms":
		err = runTerms(ctx, args, os.Stdout)
	case "export":
		err = runExport(ctx, args, os.Stdout)
	case "runs":
		err = runRuns(ctx, args, os.Stdout)
	case "config":
		err = runConfig(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("textlens version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "textlens %s: %v\n", command, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInputFormat):
		return 3
	case errors.Is(err, apperr.ErrConfiguration):
		return 4
	case errors.Is(err, apperr.ErrNotFound):
		return 5
	default:
		return 1
	}
}

// commonFlags are shared by every command that runs the pipeline.
type commonFlags struct {
	configPath string
	debug      bool
	format     string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "config file path (default: ./"+defaultConfigName+" when present)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.StringVar(&c.format, "format", "text", "output format: text or json")
	return c
}

// session is the state every pipeline command starts from.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	format cli.OutputFormat
}

func (c *commonFlags) open() (*session, error) {
	format, err := cli.ParseFormat(c.format)
	if err != nil {
		return nil, err
	}
	cfg, resolved, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	debugMode := cfg.Debug || c.debug
	logger, err := utils.NewCLILogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return &session{cfg: cfg, logger: logger, format: format}, nil
}

// inputPath returns the positional input path or the configured one.
func (s *session) inputPath(fs *flag.FlagSet) string {
	if fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return s.cfg.Input.Path
}

// annotated loads the input and annotates its text column.
func (s *session) annotated(ctx context.Context, input string) (*pipeline.Pipeline, error) {
	p, err := pipeline.New(s.cfg, pipeline.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	if _, err := p.Load(input); err != nil {
		_ = p.Close()
		return nil, err
	}
	if _, err := p.Annotate(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// persist stores the table of a run plus whatever save adds, when a database is configured.
func (s *session) persist(ctx context.Context, dbPath, input string, table *models.Table, save func(storage.Store, string) error) error {
	if dbPath == "" {
		return fmt.Errorf("no database: set output.database_path or pass --db")
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	run, err := store.CreateRun(ctx, input, s.cfg.Columns.Text)
	if err != nil {
		return err
	}
	if err := store.SaveTable(ctx, run.ID, table); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	if err := save(store, run.ID); err != nil {
		return err
	}
	s.logger.Info("run saved", zap.String("run_id", run.ID), zap.String("database", dbPath))
	return nil
}

func runFlatten(_ context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("flatten", flag.ContinueOnError)
	common := addCommonFlags(fs)
	columns := fs.String("columns", "", "comma-separated columns to keep (default: all)")
	xlsxPath := fs.String("xlsx", "", "write the table to this .xlsx file instead of stdout")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	s, err := common.open()
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	input := s.inputPath(fs)
	if input == "" {
		return fmt.Errorf("no input file: pass a path or set input.path")
	}
	table, err := records.Load(input, records.Options{Separator: s.cfg.Input.Separator, Logger: s.logger})
	if err != nil {
		return err
	}
	cols := splitList(*columns)
	if len(cols) > 0 {
		if table, err = table.Select(cols...); err != nil {
			return err
		}
	}
	if *xlsxPath != "" {
		return storage.WriteXLSX(*xlsxPath, table)
	}
	return cli.WriteTable(out, table, nil, s.format)
}

func runSimilar(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("similar", flag.ContinueOnError)
	common := addCommonFlags(fs)
	ref := fs.Int("ref", -1, "row index of the reference document (required)")
	limit := fs.Int("limit", 0, "number of neighbors (default from config)")
	least := fs.Bool("least", false, "return the least similar documents instead")
	save := fs.Bool("save", false, "store the run in the results database")
	dbPath := fs.String("db", "", "results database path (default from config)")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	if *ref < 0 {
		return apperr.Configuration("--ref is required")
	}
	s, err := common.open()
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	input := s.inputPath(fs)
	p, err := s.annotated(ctx, input)
	if err != nil {
		return err
	}
	defer p.Close()

	opts := similarity.Options{Limit: s.cfg.Similarity.Limit, LeastSimilar: s.cfg.Similarity.LeastSimilar || *least}
	if *limit > 0 {
		opts.Limit = *limit
	}
	neighbors, err := p.SimilarWith(*ref, opts)
	if err != nil {
		return err
	}
	fields := []string{s.cfg.Columns.Title, s.cfg.Columns.Text}
	if err := cli.WriteNeighbors(out, *ref, neighbors, fields, s.format); err != nil {
		return err
	}
	if !*save {
		return nil
	}
	return s.persist(ctx, firstNonEmpty(*dbPath, s.cfg.Output.DatabasePath), input, p.Table(),
		func(store storage.Store, runID string) error {
			return store.SaveNeighbors(ctx, runID, *ref, neighbors)
		})
}

func runTerms(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("terms", flag.ContinueOnError)
	common := addCommonFlags(fs)
	row := fs.Int("row", -1, "row index to describe (default: every annotated row)")
	maxTokens := fs.Int("max-tokens", 0, "terms per row (default from config)")
	save := fs.Bool("save", false, "store the run in the results database")
	dbPath := fs.String("db", "", "results database path (default from config)")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	s, err := common.open()
	if err != nil {
		return err
	}
	defer s.logger.Sync()
	if *maxTokens > 0 {
		s.cfg.Terms.MaxTokens = *maxTokens
	}

	input := s.inputPath(fs)
	p, err := s.annotated(ctx, input)
	if err != nil {
		return err
	}
	defer p.Close()

	matrix, err := p.BuildTerms()
	if err != nil {
		return err
	}
	rows := matrix.Indices()
	if *row >= 0 {
		rows = []int{*row}
	}
	all := make(map[int][]models.TermWeight, len(rows))
	for _, idx := range rows {
		terms, err := p.TopTerms(idx)
		if err != nil {
			return err
		}
		all[idx] = terms
		if err := cli.WriteTopTerms(out, idx, terms, s.format); err != nil {
			return err
		}
	}
	if !*save {
		return nil
	}
	return s.persist(ctx, firstNonEmpty(*dbPath, s.cfg.Output.DatabasePath), input, p.Table(),
		func(store storage.Store, runID string) error {
			for _, idx := range rows {
				if err := store.SaveTopTerms(ctx, runID, idx, all[idx]); err != nil {
					return err
				}
			}
			return nil
		})
}

func runExport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := addCommonFlags(fs)
	outPath := fs.String("out", "", "workbook path (default: output.xlsx_path)")
	ref := fs.Int("ref", -1, "also export the similarity ranking for this row")
	columns := fs.String("columns", "", "comma-separated columns for the records sheet (default: all)")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	s, err := common.open()
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	path := firstNonEmpty(*outPath, s.cfg.Output.XLSXPath)
	if path == "" {
		return apperr.Configuration("no workbook path: pass --out or set output.xlsx_path")
	}
	p, err := s.annotated(ctx, s.inputPath(fs))
	if err != nil {
		return err
	}
	defer p.Close()

	wb := storage.NewWorkbook()
	if err := wb.AddTable(p.Table(), splitList(*columns)...); err != nil {
		return err
	}
	if *ref >= 0 {
		neighbors, err := p.Similar(*ref)
		if err != nil {
			return err
		}
		if err := wb.AddNeighbors(*ref, neighbors, s.cfg.Columns.Title, s.cfg.Columns.Text); err != nil {
			return err
		}
	}
	matrix, err := p.BuildTerms()
	if err != nil {
		return err
	}
	terms := make(map[int][]models.TermWeight, matrix.Rows())
	for _, idx := range matrix.Indices() {
		if terms[idx], err = p.TopTerms(idx); err != nil {
			return err
		}
	}
	if err := wb.AddTopTerms(terms); err != nil {
		return err
	}
	if err := wb.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func runRuns(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addCommonFlags(fs)
	dbPath := fs.String("db", "", "results database path (default from config)")
	limit := fs.Int("limit", 20, "number of runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := common.open()
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	path := firstNonEmpty(*dbPath, s.cfg.Output.DatabasePath)
	if path == "" {
		return apperr.Configuration("no database: set output.database_path or pass --db")
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	runs, err := store.ListRuns(ctx, 0, *limit)
	if err != nil {
		return err
	}
	return cli.WriteRuns(out, runs, s.format)
}

func runConfig(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: textlens config <init|show> [flags]")
	}
	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("config init", flag.ContinueOnError)
		force := fs.Bool("force", false, "overwrite an existing file")
		if err := fs.Parse(argsReorder(args[1:])); err != nil {
			return err
		}
		path := defaultConfigName
		if fs.NArg() > 0 {
			path = fs.Arg(0)
		}
		if _, err := os.Stat(path); err == nil && !*force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
		return nil
	case "show":
		fs := flag.NewFlagSet("config show", flag.ContinueOnError)
		configPath := fs.String("config", "", "config file path")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown config action %q (want init or show)", args[0])
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `textlens - similarity and key terms for social-media post exports

Usage:
  textlens flatten [flags] [input]   Print the flattened NDJSON table
  textlens similar [flags] [input]   Rank posts by similarity to one post
  textlens terms [flags] [input]     Show the top TF-IDF terms per post
  textlens export [flags] [input]    Write records, rankings and terms to .xlsx
  textlens runs [flags]              List runs stored in the results database
  textlens config <init|show>        Write or print the configuration
  textlens version                   Show version
  textlens help                      Show this help

Common Flags:
  --config string    Config file path (default: ./textlens.yaml when present)
  --debug            Enable debug logging
  --format string    Output format: text or json (default: text)

Flatten Flags:
  --columns string   Comma-separated columns to keep
  --xlsx string      Write the table to an .xlsx file

Similar Flags:
  --ref int          Row index of the reference post (required)
  --limit int        Number of neighbors (default from config, 10)
  --least            Return the least similar posts
  --save             Store the run in the results database
  --db string        Results database path

Terms Flags:
  --row int          Row index to describe (default: all rows)
  --max-tokens int   Terms per row (default from config, 10)
  --save, --db       As for similar

Export Flags:
  --out string       Workbook path (default: output.xlsx_path)
  --ref int          Also export the ranking for this row
  --columns string   Columns for the records sheet

Examples:
  textlens flatten posts.ndjson --columns name,description
  textlens similar posts.ndjson --ref 0 --limit 5
  textlens terms posts.ndjson --row 3 --format json
  textlens export posts.ndjson --out results.xlsx --ref 0
  textlens config init`)
}
