package normalize

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/hyperjump/textlens/internal/annotate"
	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/language"
	"github.com/hyperjump/textlens/internal/models"
	"github.com/hyperjump/textlens/internal/stopwords"
)

func tokens(specs ...models.Token) *models.Annotation {
	return &models.Annotation{Tokens: specs}
}

func TestNormalizer_LengthPolicy(t *testing.T) {
	n, err := New(PolicyLength, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	ann := tokens(
		models.Token{Text: "She", Lemma: models.PronounLemma, Pronoun: true},
		models.Token{Text: "loves", Lemma: "love"},
		models.Token{Text: "her", Lemma: models.PronounLemma, Pronoun: true},
		models.Token{Text: "big", Lemma: "big"},
		models.Token{Text: "cats", Lemma: "cat"},
		models.Token{Text: "gardens", Lemma: "garden"},
		models.Token{Text: "!!!!", Lemma: "!!!!", Punct: true},
		models.Token{Text: "....", Lemma: "...."},
	)
	want := []string{"she", "love", "her", "garden"}
	if got := n.Tokens(ann); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
	if got := n.Text(ann); got != "she love her garden" {
		t.Errorf("Text = %q", got)
	}
}

func TestNormalizer_LengthPolicyProseLemmas(t *testing.T) {
	model, err := language.NewProseModel(language.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer model.Close()
	ann, err := model.Annotate(context.Background(), "cats are great pets")
	if err != nil {
		t.Fatal(err)
	}
	n, _ := New(PolicyLength, 4, nil)
	for _, term := range n.Tokens(ann) {
		if utf8.RuneCountInString(term) < 4 {
			t.Errorf("term %q is shorter than the minimum length", term)
		}
	}
	if got := n.Text(ann); got != "great" {
		t.Errorf("Text = %q, want %q", got, "great")
	}
}

func TestNormalizer_StopWordPolicy(t *testing.T) {
	stops, err := stopwords.Load("en")
	if err != nil {
		t.Fatal(err)
	}
	n, err := New(PolicyStopWords, 0, stops)
	if err != nil {
		t.Fatal(err)
	}
	ann := tokens(
		models.Token{Text: "The", Lemma: "the"},
		models.Token{Text: "cat", Lemma: "cat"},
		models.Token{Text: "is", Lemma: "is"},
		models.Token{Text: "on", Lemma: "on"},
		models.Token{Text: "mat", Lemma: "mat"},
		models.Token{Text: ".", Lemma: ".", Punct: true},
	)
	if got, want := n.Tokens(ann), []string{"cat", "mat"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestNormalizer_EmptyAnnotation(t *testing.T) {
	n, _ := New(PolicyLength, 0, nil)
	if got := n.Text(tokens(models.Token{Text: "a", Lemma: "a"})); got != "" {
		t.Errorf("Text = %q, want empty", got)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(PolicyStopWords, 0, nil); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("stopwords without set: %v", err)
	}
	if _, err := New("fancy", 0, nil); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("unknown policy: %v", err)
	}
	n, err := New("", 0, nil)
	if err != nil || n.Policy() != PolicyLength {
		t.Errorf("empty policy should default to length: %v %v", n, err)
	}
}

func TestNormalizer_StableUnderReannotation(t *testing.T) {
	model := language.NewSimpleModel(language.Options{})
	n, _ := New(PolicyLength, 4, nil)
	ctx := context.Background()
	texts := []string{
		"They posted photos of their lovely garden!",
		"Cats are great pets, really great.",
		"",
	}
	for _, text := range texts {
		first, _ := model.Annotate(ctx, text)
		once := n.Text(first)
		second, _ := model.Annotate(ctx, once)
		if twice := n.Text(second); twice != once {
			t.Errorf("normalization not stable for %q: %q -> %q", text, once, twice)
		}
	}
}

func TestNormalizer_Series(t *testing.T) {
	rows := []models.Row{
		{Index: 0, Values: map[string]any{"d": "Great pets"}},
		{Index: 1, Values: map[string]any{"d": nil}},
		{Index: 2, Values: map[string]any{"d": "tiny"}},
	}
	a, _ := annotate.NewAnnotator(language.NewSimpleModel(language.Options{}))
	s, err := a.Annotate(context.Background(), models.NewTable([]string{"d"}, rows), "d", "d_nlp")
	if err != nil {
		t.Fatal(err)
	}
	n, _ := New(PolicyLength, 5, nil)
	docs := n.Series(s)
	want := []Document{{Index: 0, Text: "great"}, {Index: 2, Text: ""}}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("Series = %v, want %v", docs, want)
	}
}
