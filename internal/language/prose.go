package language

import (
	"context"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/embedding"
	"github.com/hyperjump/textlens/internal/models"
	"github.com/hyperjump/textlens/pkg/utils"
)

// Penn Treebank tags for personal, possessive and wh- pronouns.
var pronounTags = map[string]struct{}{
	"PRP":  {},
	"PRP$": {},
	"WP":   {},
	"WP$":  {},
}

// snowball languages supported by github.com/kljensen/snowball.
var stemLanguages = map[string]struct{}{
	"english":   {},
	"spanish":   {},
	"french":    {},
	"russian":   {},
	"swedish":   {},
	"norwegian": {},
	"hungarian": {},
}

// ProseModel tags tokens with prose's English averaged-perceptron tagger and derives
// lemmas with a snowball stemmer. The tagger is English-only; on other languages the
// pronoun flags are unreliable even when Language selects a matching stemmer.
// The tagger weights are decoded once and only read afterwards, so one ProseModel
// serves every annotator worker.
type ProseModel struct {
	language string
	tagger   *prose.Model
	embedder embedding.Embedder
}

// NewProseModel validates opts.Language (default "english") and loads the tagger.
func NewProseModel(opts Options) (*ProseModel, error) {
	lang := strings.ToLower(opts.Language)
	if lang == "" {
		lang = "english"
	}
	if _, ok := stemLanguages[lang]; !ok {
		return nil, apperr.Configuration("unsupported stemmer language %q", opts.Language)
	}
	return &ProseModel{
		language: lang,
		tagger:   prose.ModelFromData("en"),
		embedder: opts.embedder(),
	}, nil
}

// Name returns "prose".
func (m *ProseModel) Name() string {
	return ModelProse
}

// Annotate tokenizes and tags text. Pronouns get models.PronounLemma.
func (m *ProseModel) Annotate(ctx context.Context, text string) (*models.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := prose.NewDocument(text,
		prose.UsingModel(m.tagger),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	ptoks := doc.Tokens()
	ann := &models.Annotation{Text: text, Tokens: make([]models.Token, 0, len(ptoks))}
	content := make([]string, 0, len(ptoks))
	for _, pt := range ptoks {
		tok := models.Token{Text: pt.Text, Tag: pt.Tag}
		lower := strings.ToLower(pt.Text)
		switch {
		case utils.IsPunct(pt.Text):
			tok.Punct = true
			tok.Lemma = pt.Text
		case isPronounTag(pt.Tag):
			tok.Pronoun = true
			tok.Lemma = models.PronounLemma
			content = append(content, lower)
		default:
			tok.Lemma = m.stem(lower)
			content = append(content, tok.Lemma)
		}
		ann.Tokens = append(ann.Tokens, tok)
	}

	ann.Vector, err = m.embedder.Embed(ctx, vectorText(content))
	if err != nil {
		return nil, embedError(err)
	}
	return ann, nil
}

func (m *ProseModel) stem(word string) string {
	stemmed, err := snowball.Stem(word, m.language, false)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// Close releases the embedder.
func (m *ProseModel) Close() error {
	return m.embedder.Close()
}

func isPronounTag(tag string) bool {
	_, ok := pronounTags[tag]
	return ok
}
