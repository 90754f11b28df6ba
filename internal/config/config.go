// Package config provides configuration loading and structs for textlens runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Input      InputConfig      `yaml:"input"`
	Columns    ColumnsConfig    `yaml:"columns"`
	Annotate   AnnotateConfig   `yaml:"annotate"`
	Normalize  NormalizeConfig  `yaml:"normalize"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Terms      TermsConfig      `yaml:"terms"`
	Output     OutputConfig     `yaml:"output"`
}

// InputConfig locates the NDJSON file and controls flattening.
type InputConfig struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
}

// ColumnsConfig names the columns the pipeline reads.
type ColumnsConfig struct {
	// Text is the free-text column that gets annotated.
	Text string `yaml:"text"`
	// Compare names the annotation series; conventionally "<text>_nlp".
	Compare string `yaml:"compare"`
	// Title is shown next to the text column in similarity results.
	Title string `yaml:"title"`
}

// AnnotateConfig selects the language model and its document vectors.
type AnnotateConfig struct {
	Model         string `yaml:"model"`
	Language      string `yaml:"language"`
	Workers       int    `yaml:"workers"`
	Vector        string `yaml:"vector"`
	Dimensions    int    `yaml:"dimensions"`
	CacheSize     int    `yaml:"cache_size"`
	ONNXModelPath string `yaml:"onnx_model_path"`
	MaxTokens     int    `yaml:"max_tokens"`
}

// NormalizeConfig controls which tokens reach the term-weight builder.
type NormalizeConfig struct {
	Policy         string   `yaml:"policy"`
	MinTokenLength int      `yaml:"min_token_length"`
	StopWords      []string `yaml:"stopwords"`
	StopWordsFile  string   `yaml:"stopwords_file"`
}

// SimilarityConfig holds ranking settings.
type SimilarityConfig struct {
	Limit        int  `yaml:"limit"`
	LeastSimilar bool `yaml:"least_similar"`
}

// TermsConfig holds TF-IDF vocabulary bounds.
type TermsConfig struct {
	MaxDF       float64 `yaml:"max_df"`
	MinDF       int     `yaml:"min_df"`
	MaxFeatures int     `yaml:"max_features"`
	MaxTokens   int     `yaml:"max_tokens"`
	// FilterStopWords also removes normalize.stopwords terms before weighting.
	FilterStopWords bool `yaml:"filter_stopwords"`
}

// OutputConfig holds result destinations. Empty paths disable that output.
type OutputConfig struct {
	DatabasePath string `yaml:"database_path"`
	XLSXPath     string `yaml:"xlsx_path"`
}

// Default returns a config with every default applied and environment overrides read.
func Default() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the config file at path, applies defaults and environment
// overrides, expands paths, and validates the result.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Input.Path = expandPath(cfg.Input.Path, configDir)
	cfg.Annotate.ONNXModelPath = expandPath(cfg.Annotate.ONNXModelPath, configDir)
	cfg.Normalize.StopWordsFile = expandPath(cfg.Normalize.StopWordsFile, configDir)
	cfg.Output.DatabasePath = expandPath(cfg.Output.DatabasePath, configDir)
	cfg.Output.XLSXPath = expandPath(cfg.Output.XLSXPath, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvDebug      = "TEXTLENS_DEBUG"
	EnvWorkers    = "TEXTLENS_WORKERS"
	EnvTextColumn = "TEXTLENS_TEXT_COLUMN"
	EnvStopWords  = "TEXTLENS_STOPWORDS"
)

// ApplyEnv overrides cfg from TEXTLENS_* environment variables. Setting the text
// column also renames the compare series to "<text>_nlp".
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvDebug, v, err)
		}
		cfg.Debug = b
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvWorkers, v, err)
		}
		cfg.Annotate.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvTextColumn)); v != "" {
		cfg.Columns.Text = v
		cfg.Columns.Compare = v + CompareSuffix
	}
	if v, ok := os.LookupEnv(EnvStopWords); ok {
		var langs []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, strings.ToLower(l))
			}
		}
		cfg.Normalize.StopWords = langs
	}
	return nil
}

func envError(name, value string, err error) error {
	return fmt.Errorf("invalid %s=%q: %w", name, value, err)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
