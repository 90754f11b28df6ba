// Package stopwords builds stop-word sets from bleve's per-language lists and
// from user-supplied YAML files.
package stopwords

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/de"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/analysis/lang/fr"
	"github.com/blevesearch/bleve/v2/analysis/lang/nl"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/textlens/internal/apperr"
)

// builtin maps language codes to bleve's snowball-format stop-word lists.
var builtin = map[string][]byte{
	"en": en.EnglishStopWords,
	"de": de.GermanStopWords,
	"nl": nl.DutchStopWords,
	"fr": fr.FrenchStopWords,
	"es": es.SpanishStopWords,
}

// Languages returns the codes accepted by Load, sorted.
func Languages() []string {
	out := make([]string, 0, len(builtin))
	for code := range builtin {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Set is a set of lower-case stop words.
type Set map[string]struct{}

// Contains reports whether word (compared lower-cased) is a stop word.
func (s Set) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Add inserts words into the set.
func (s Set) Add(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
}

// Words returns the set's members, sorted.
func (s Set) Words() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Load merges the built-in lists for the given language codes, e.g. Load("en", "nl")
// for a Dutch corpus that also carries English filler words.
func Load(languages ...string) (Set, error) {
	set := make(Set)
	for _, lang := range languages {
		data, ok := builtin[strings.ToLower(lang)]
		if !ok {
			return nil, apperr.Configuration("unsupported stop-word language %q (supported: %s)",
				lang, strings.Join(Languages(), ", "))
		}
		tm := analysis.NewTokenMap()
		if err := tm.LoadBytes(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s stop words: %w", lang, err)
		}
		for w := range tm {
			set.Add(w)
		}
	}
	return set, nil
}

// File is the YAML layout of a custom stop-word list.
type File struct {
	Terms []string `yaml:"terms"`
}

// LoadFile reads a YAML stop-word list and merges it into set.
func LoadFile(set Set, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read stop words: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse stop words: %w", err)
	}
	set.Add(f.Terms...)
	return nil
}
