package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/textlens/internal/annotate"
	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/language"
	"github.com/hyperjump/textlens/internal/models"
)

func vec(index int, v ...float32) *models.Annotation {
	return &models.Annotation{Index: index, Vector: v}
}

func TestRank_ExcludesReferenceAndOrders(t *testing.T) {
	pool := annotate.NewSeries("p", []*models.Annotation{
		vec(0, 1, 0),
		vec(1, 0.9, 0.1),
		vec(2, 0, 1),
		vec(3, 0.5, 0.5),
	})
	ref, _ := pool.Get(0)
	r := NewRanker(nil)

	got := r.Rank(ref, pool, Options{Limit: 10})
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(got))
	}
	wantOrder := []int{1, 3, 2}
	for i, n := range got {
		if n.Index == 0 {
			t.Fatal("reference document returned")
		}
		if n.Index != wantOrder[i] || n.Rank != i+1 {
			t.Errorf("position %d = %+v, want index %d", i, n, wantOrder[i])
		}
	}

	least := r.Rank(ref, pool, Options{Limit: 1, LeastSimilar: true})
	if len(least) != 1 || least[0].Index != 2 {
		t.Errorf("least similar = %+v, want index 2", least)
	}
}

func TestRank_PoolWithoutReferenceKeepsBestMatch(t *testing.T) {
	pool := annotate.NewSeries("p", []*models.Annotation{vec(1, 1, 0), vec(2, 0, 1)})
	ref := vec(-1, 1, 0)
	got := NewRanker(nil).Rank(ref, pool, Options{Limit: 1})
	if len(got) != 1 || got[0].Index != 1 {
		t.Errorf("got %+v, want the closest document 1", got)
	}
}

func TestRank_NilReference(t *testing.T) {
	pool := annotate.NewSeries("p", []*models.Annotation{vec(0, 1, 0)})
	if got := NewRanker(nil).Rank(nil, pool, Options{}); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
	if got := NewRanker(nil).Rank(vec(0, 1, 0), nil, Options{}); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestRank_SmallPools(t *testing.T) {
	for n := 0; n <= 4; n++ {
		anns := make([]*models.Annotation, n)
		for i := range anns {
			anns[i] = vec(i, float32(i+1), 1)
		}
		pool := annotate.NewSeries("p", anns)
		ref := vec(0, 1, 1)
		got := NewRanker(nil).Rank(ref, pool, Options{Limit: 10})
		want := n - 1
		if n == 0 {
			want = 0
		}
		if len(got) != want {
			t.Errorf("pool of %d: got %d neighbors, want %d", n, len(got), want)
		}
	}
}

func TestRank_DegenerateReference(t *testing.T) {
	pool := annotate.NewSeries("p", []*models.Annotation{vec(0), vec(2, 1, 0), vec(1, 0, 1)})
	ref, _ := pool.Get(0)
	got := NewRanker(nil).Rank(ref, pool, Options{})
	if len(got) != 2 {
		t.Fatalf("got %d", len(got))
	}
	for _, n := range got {
		if n.Score != 0 {
			t.Errorf("empty reference should score 0, got %f", n.Score)
		}
	}
	if got[0].Index != 1 {
		t.Errorf("ties should be ordered by index, got %+v", got)
	}
}

func TestRankIndex_NotFound(t *testing.T) {
	pool := annotate.NewSeries("p", []*models.Annotation{vec(0, 1)})
	if _, err := NewRanker(nil).RankIndex(5, pool, Options{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRank_EndToEndLexicalOverlap(t *testing.T) {
	rows := []models.Row{
		{Index: 0, Values: map[string]any{"name": "a", "description": "cats are great pets"}},
		{Index: 1, Values: map[string]any{"name": "b", "description": "dogs are great pets"}},
		{Index: 2, Values: map[string]any{"name": "c", "description": "quantum physics is hard"}},
	}
	tbl := models.NewTable([]string{"name", "description"}, rows)
	a, _ := annotate.NewAnnotator(language.NewSimpleModel(language.Options{}))
	pool, err := a.Annotate(context.Background(), tbl, "description", "description_nlp")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRanker(tbl, "name", "description")

	top, err := r.RankIndex(0, pool, Options{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Index != 1 {
		t.Fatalf("top neighbor = %+v, want row 1", top)
	}
	if top[0].Fields["name"] != "b" || top[0].Fields["description"] != "dogs are great pets" {
		t.Errorf("fields = %v", top[0].Fields)
	}

	all, _ := r.RankIndex(0, pool, Options{Limit: 10})
	if len(all) != 2 || all[1].Index != 2 {
		t.Errorf("full ranking = %+v", all)
	}
}
