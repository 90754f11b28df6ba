package embedding

import (
	"reflect"
	"strings"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("hello world", 10)
	if len(ids) != 10 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("expected SEP after two words, got %d", ids[3])
	}
	if attn[0] != 1 || attn[4] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  Cats, dogs  and... PETS! ")
	if want := []string{"cats", "dogs", "and", "pets"}; !reflect.DeepEqual(words, want) {
		t.Errorf("SplitWords = %v, want %v", words, want)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
}

func TestHashString_NonNegative(t *testing.T) {
	// "OY[T^]CY_DXRW" wraps to exactly math.MinInt before masking.
	for _, s := range []string{"OY[T^]CY_DXRW", strings.Repeat("z", 64), "überlänge"} {
		if h := HashString(s); h < 0 {
			t.Errorf("HashString(%q) = %d, want >= 0", s, h)
		}
	}
}
