package embedding

import (
	"context"
	"hash/fnv"
	"strings"

	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"

	"github.com/hyperjump/textlens/pkg/utils"
)

// BagOfWordsEmbedder hashes every word of the text into a fixed number of buckets
// and returns the L2-normalized count vector. Texts sharing words get a positive
// cosine similarity; hash collisions can only raise it.
type BagOfWordsEmbedder struct {
	dimensions int
	tokenizer  *bleveunicode.UnicodeTokenizer
}

// NewBagOfWordsEmbedder returns a hashing embedder with the given number of buckets (default 300).
func NewBagOfWordsEmbedder(dimensions int) *BagOfWordsEmbedder {
	if dimensions <= 0 {
		dimensions = 300
	}
	return &BagOfWordsEmbedder{
		dimensions: dimensions,
		tokenizer:  bleveunicode.NewUnicodeTokenizer(),
	}
}

// Embed returns the hashed bag-of-words vector for text. Empty text yields a zero vector.
func (e *BagOfWordsEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, tok := range e.tokenizer.Tokenize([]byte(text)) {
		word := strings.ToLower(string(tok.Term))
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		emb[int(h.Sum32()%uint32(e.dimensions))]++
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *BagOfWordsEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the number of hash buckets.
func (e *BagOfWordsEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *BagOfWordsEmbedder) Close() error {
	return nil
}
