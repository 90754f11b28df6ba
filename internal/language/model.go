// Package language provides the language models that annotate text: tokens with
// lemma and pronoun information plus a document vector for similarity scoring.
//
// Models are explicit values owned by the caller. Nothing is loaded into process-wide
// state, so a run can swap in a model for the corpus language, or a deterministic
// model in tests.
package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/embedding"
	"github.com/hyperjump/textlens/internal/models"
)

// Model annotates a single text. Implementations must be safe for concurrent use;
// the annotator calls Annotate from several workers.
type Model interface {
	Annotate(ctx context.Context, text string) (*models.Annotation, error)
	Name() string
	Close() error
}

// Model names accepted by New.
const (
	ModelProse  = "prose"
	ModelSimple = "simple"
)

// Options configures a model.
type Options struct {
	// Language is the snowball stemmer language used for lemmas (prose model only).
	Language string
	// Embedder computes the document vector. Nil means a 300-bucket bag-of-words embedder.
	Embedder embedding.Embedder
}

func (o Options) embedder() embedding.Embedder {
	if o.Embedder == nil {
		return embedding.NewBagOfWordsEmbedder(300)
	}
	return o.Embedder
}

// New returns the model registered under name.
func New(name string, opts Options) (Model, error) {
	switch strings.ToLower(name) {
	case ModelProse, "":
		return NewProseModel(opts)
	case ModelSimple:
		return NewSimpleModel(opts), nil
	default:
		return nil, apperr.Configuration("unknown language model %q", name)
	}
}

// vectorText is the text handed to the embedder: the lemma of every content token,
// with pronouns in their surface form.
func vectorText(lemmas []string) string {
	return strings.Join(lemmas, " ")
}

func embedError(err error) error {
	return fmt.Errorf("failed to embed document: %w", err)
}
