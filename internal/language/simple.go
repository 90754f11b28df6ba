package language

import (
	"context"
	"strings"

	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"

	"github.com/hyperjump/textlens/internal/embedding"
	"github.com/hyperjump/textlens/internal/models"
)

// English personal, possessive and wh- pronouns.
var simplePronouns = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "mine": {}, "myself": {},
	"you": {}, "your": {}, "yours": {}, "yourself": {}, "yourselves": {},
	"he": {}, "him": {}, "his": {}, "himself": {},
	"she": {}, "her": {}, "hers": {}, "herself": {},
	"it": {}, "its": {}, "itself": {},
	"we": {}, "us": {}, "our": {}, "ours": {}, "ourselves": {},
	"they": {}, "them": {}, "their": {}, "theirs": {}, "themselves": {},
	"who": {}, "whom": {}, "whose": {}, "what": {},
}

// SimpleModel splits on Unicode word boundaries and uses the lower-cased word as
// its lemma. It has no tagger: pronouns come from a fixed English list and
// punctuation never appears as a token. It is deterministic and dependency-light,
// which makes it the model of choice for tests and for languages prose cannot tag.
type SimpleModel struct {
	tokenizer *bleveunicode.UnicodeTokenizer
	embedder  embedding.Embedder
}

// NewSimpleModel returns a SimpleModel. opts.Language is ignored.
func NewSimpleModel(opts Options) *SimpleModel {
	return &SimpleModel{
		tokenizer: bleveunicode.NewUnicodeTokenizer(),
		embedder:  opts.embedder(),
	}
}

// Name returns "simple".
func (m *SimpleModel) Name() string {
	return ModelSimple
}

// Annotate tokenizes text and computes its vector.
func (m *SimpleModel) Annotate(ctx context.Context, text string) (*models.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream := m.tokenizer.Tokenize([]byte(text))
	ann := &models.Annotation{Text: text, Tokens: make([]models.Token, 0, len(stream))}
	content := make([]string, 0, len(stream))
	for _, bt := range stream {
		surface := string(bt.Term)
		lower := strings.ToLower(surface)
		tok := models.Token{Text: surface, Lemma: lower}
		if _, ok := simplePronouns[lower]; ok {
			tok.Pronoun = true
			tok.Lemma = models.PronounLemma
		}
		content = append(content, lower)
		ann.Tokens = append(ann.Tokens, tok)
	}
	vec, err := m.embedder.Embed(ctx, vectorText(content))
	if err != nil {
		return nil, embedError(err)
	}
	ann.Vector = vec
	return ann, nil
}

// Close releases the embedder.
func (m *SimpleModel) Close() error {
	return m.embedder.Close()
}
