package config

import (
	"math"
	"slices"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/stopwords"
)

// Vector backends accepted in annotate.vector.
const (
	VectorBagOfWords = "bow"
	VectorONNX       = "onnx"
)

// Validate rejects settings no run could use. Corpus-dependent checks (min_df
// against the number of documents) happen when the term weights are built.
func Validate(cfg *Config) error {
	switch {
	case cfg.Columns.Text == "":
		return apperr.Configuration("columns.text must be set")
	case cfg.Annotate.Workers <= 0:
		return apperr.Configuration("annotate.workers must be positive, got %d", cfg.Annotate.Workers)
	case cfg.Annotate.Dimensions <= 0:
		return apperr.Configuration("annotate.dimensions must be positive, got %d", cfg.Annotate.Dimensions)
	case cfg.Annotate.CacheSize < 0:
		return apperr.Configuration("annotate.cache_size must not be negative, got %d", cfg.Annotate.CacheSize)
	case cfg.Normalize.MinTokenLength < 0:
		return apperr.Configuration("normalize.min_token_length must not be negative, got %d", cfg.Normalize.MinTokenLength)
	case cfg.Similarity.Limit < 0:
		return apperr.Configuration("similarity.limit must not be negative, got %d", cfg.Similarity.Limit)
	case math.IsNaN(cfg.Terms.MaxDF) || cfg.Terms.MaxDF < 0:
		return apperr.Configuration("terms.max_df must not be negative, got %v", cfg.Terms.MaxDF)
	case cfg.Terms.MinDF < 0:
		return apperr.Configuration("terms.min_df must not be negative, got %d", cfg.Terms.MinDF)
	case cfg.Terms.MaxFeatures < 0:
		return apperr.Configuration("terms.max_features must not be negative, got %d", cfg.Terms.MaxFeatures)
	case cfg.Terms.MaxTokens < 0:
		return apperr.Configuration("terms.max_tokens must not be negative, got %d", cfg.Terms.MaxTokens)
	}
	switch cfg.Annotate.Vector {
	case VectorBagOfWords:
	case VectorONNX:
		if cfg.Annotate.ONNXModelPath == "" {
			return apperr.Configuration("annotate.onnx_model_path is required for the onnx vector backend")
		}
	default:
		return apperr.Configuration("unknown annotate.vector %q", cfg.Annotate.Vector)
	}
	known := stopwords.Languages()
	for _, lang := range cfg.Normalize.StopWords {
		if !slices.Contains(known, lang) {
			return apperr.Configuration("unknown stop-word language %q (have %v)", lang, known)
		}
	}
	return nil
}
