// Package normalize reduces annotations to cleaned token sequences for term weighting.
package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/textlens/internal/annotate"
	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/models"
	"github.com/hyperjump/textlens/internal/stopwords"
	"github.com/hyperjump/textlens/pkg/utils"
)

// Policy selects which non-pronoun tokens survive normalization.
type Policy string

const (
	// PolicyLength keeps tokens whose lemma has at least MinLength runes.
	PolicyLength Policy = "length"
	// PolicyStopWords keeps tokens that are not stop words.
	PolicyStopWords Policy = "stopwords"
)

// DefaultMinLength is the shortest token kept by PolicyLength.
const DefaultMinLength = 4

// Normalizer turns annotations into token sequences. It is immutable after construction.
type Normalizer struct {
	policy    Policy
	minLength int
	stops     stopwords.Set
}

// New validates the policy. stops is required for PolicyStopWords and ignored otherwise.
func New(policy Policy, minLength int, stops stopwords.Set) (*Normalizer, error) {
	switch policy {
	case PolicyLength, "":
		policy = PolicyLength
		if minLength <= 0 {
			minLength = DefaultMinLength
		}
	case PolicyStopWords:
		if stops == nil {
			return nil, apperr.Configuration("normalize policy %q needs a stop-word set", policy)
		}
	default:
		return nil, apperr.Configuration("unknown normalize policy %q", policy)
	}
	return &Normalizer{policy: policy, minLength: minLength, stops: stops}, nil
}

// Policy returns the active policy.
func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Tokens returns the normalized tokens of ann in order:
// pronouns as their lower-cased surface form, other tokens as their lemma when
// they pass the policy; punctuation is always dropped.
func (n *Normalizer) Tokens(ann *models.Annotation) []string {
	out := make([]string, 0, len(ann.Tokens))
	for _, tok := range ann.Tokens {
		if tok.Pronoun || tok.Lemma == models.PronounLemma {
			out = append(out, strings.ToLower(tok.Text))
			continue
		}
		if tok.Punct || utils.IsPunct(tok.Lemma) || tok.Lemma == "" {
			continue
		}
		if n.keep(tok) {
			out = append(out, tok.Lemma)
		}
	}
	return out
}

func (n *Normalizer) keep(tok models.Token) bool {
	switch n.policy {
	case PolicyStopWords:
		return !n.stops.Contains(tok.Lemma) && !n.stops.Contains(tok.Text)
	default:
		return utf8.RuneCountInString(tok.Lemma) >= n.minLength
	}
}

// Text returns the normalized tokens joined by single spaces. An annotation with no
// surviving tokens yields "".
func (n *Normalizer) Text(ann *models.Annotation) string {
	return strings.Join(n.Tokens(ann), " ")
}

// Document is a normalized text tagged with its row index.
type Document struct {
	Index int
	Text  string
}

// Series normalizes every annotation of s, in row-index order.
func (n *Normalizer) Series(s *annotate.Series) []Document {
	anns := s.All()
	docs := make([]Document, len(anns))
	for i, a := range anns {
		docs[i] = Document{Index: a.Index, Text: n.Text(a)}
	}
	return docs
}
