package models

import "github.com/hyperjump/textlens/internal/vector"

// PronounLemma is the placeholder lemma language models assign to pronouns.
const PronounLemma = "-PRON-"

// Token is one linguistic token of an annotated document.
type Token struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	Tag     string `json:"tag,omitempty"`
	Pronoun bool   `json:"pronoun,omitempty"`
	Punct   bool   `json:"punct,omitempty"`
}

// Annotation is the linguistic annotation of one row's text.
type Annotation struct {
	Index  int       `json:"index"`
	Text   string    `json:"text"`
	Tokens []Token   `json:"tokens"`
	Vector []float32 `json:"-"`
}

// Similarity returns the cosine similarity of the two document vectors.
// Documents without a vector (or with a zero vector) score 0 against everything.
func (a *Annotation) Similarity(other *Annotation) float64 {
	if a == nil || other == nil {
		return 0
	}
	return vector.Cosine(a.Vector, other.Vector)
}
