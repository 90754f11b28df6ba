package embedding

import (
	"context"
	"testing"

	"github.com/hyperjump/textlens/internal/vector"
)

func TestBagOfWordsEmbedder_LexicalOverlap(t *testing.T) {
	e := NewBagOfWordsEmbedder(300)
	ctx := context.Background()
	cats, _ := e.Embed(ctx, "cats are great pets")
	dogs, _ := e.Embed(ctx, "dogs are great pets")
	physics, _ := e.Embed(ctx, "quantum physics is hard")

	near := vector.Cosine(cats, dogs)
	far := vector.Cosine(cats, physics)
	if near <= far {
		t.Errorf("overlapping texts should be closer: near=%f far=%f", near, far)
	}
	if near < 0.74 {
		t.Errorf("three of four shared words should give cosine >= 0.75, got %f", near)
	}
}

func TestBagOfWordsEmbedder_CaseInsensitive(t *testing.T) {
	e := NewBagOfWordsEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "Hello World")
	b, _ := e.Embed(ctx, "hello world")
	if got := vector.Cosine(a, b); got < 0.999 {
		t.Errorf("case should not matter, cosine=%f", got)
	}
}

func TestBagOfWordsEmbedder_Empty(t *testing.T) {
	e := NewBagOfWordsEmbedder(0)
	if e.Dimensions() != 300 {
		t.Errorf("default dimensions = %d", e.Dimensions())
	}
	emb, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if vector.L2Norm(emb) != 0 {
		t.Error("empty text should embed to the zero vector")
	}
	batch, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil || len(batch) != 2 {
		t.Errorf("EmbedBatch = %v, %v", batch, err)
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, _ := e.Embed(context.Background(), "same")
	b, _ := e.Embed(context.Background(), "same")
	if vector.Cosine(a, b) < 0.999 {
		t.Error("same text should embed identically")
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions = %d", e.Dimensions())
	}
}
