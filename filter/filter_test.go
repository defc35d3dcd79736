package filter

import (
	"context"
	"testing"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/store"
)

func movieItem(id int64, year int64, vote float64, genres ...string) *core.Item {
	it := core.NewItem(id)
	it.Meta["year"] = year
	it.Meta["vote_average"] = vote
	it.Meta["genres"] = genres
	return it
}

func itemIDs(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()
	adapter := NewStoreAdapter(ms)
	if err := adapter.PutBlacklist(ctx, "movierec:blacklist", []int64{4}); err != nil {
		t.Fatal(err)
	}

	expr, err := NewExprFilter(`movie.year >= 1990 && "Drama" in movie.genres`)
	if err != nil {
		t.Fatalf("NewExprFilter: %v", err)
	}

	tests := []struct {
		name    string
		filters []Filter
		want    []int64
	}{
		{name: "no filters", want: []int64{1, 2, 3, 4, 5}},
		{name: "seed", filters: []Filter{&SeedFilter{}}, want: []int64{2, 3, 4, 5}},
		{name: "memory blacklist", filters: []Filter{NewBlacklistFilter([]int64{2, 3}, nil, "")}, want: []int64{1, 4, 5}},
		{name: "store blacklist", filters: []Filter{NewBlacklistFilter(nil, adapter, "movierec:blacklist")}, want: []int64{1, 2, 3, 5}},
		{name: "missing store key", filters: []Filter{NewBlacklistFilter(nil, adapter, "movierec:none")}, want: []int64{1, 2, 3, 4, 5}},
		{name: "expression", filters: []Filter{expr}, want: []int64{1, 4}},
		{name: "combined", filters: []Filter{&SeedFilter{}, expr}, want: []int64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []*core.Item{
				movieItem(1, 2010, 7.5, "Action", "Drama"),
				movieItem(2, 1985, 6.0, "Drama"),
				movieItem(3, 2001, 5.0, "Comedy"),
				movieItem(4, 1999, 8.0, "Drama"),
				movieItem(5, 2020, 6.5),
			}
			rctx := &core.RecommendContext{SeedIDs: []int64{1}}
			out, err := (&FilterNode{Filters: tt.filters}).Process(ctx, rctx, items)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			got := itemIDs(out)
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFilterNode_LabelsFilteredItems(t *testing.T) {
	it := movieItem(1, 2000, 7, "Drama")
	rctx := &core.RecommendContext{SeedIDs: []int64{1}}
	out, err := (&FilterNode{Filters: []Filter{&SeedFilter{}}}).Process(context.Background(), rctx, []*core.Item{it})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("seed must be removed")
	}
	if lbl := it.Labels[LabelFiltered]; lbl.Source != "filter.seed" {
		t.Errorf("filtered label = %+v", lbl)
	}
}

func TestExprFilter_Errors(t *testing.T) {
	if _, err := NewExprFilter(`movie.year +`); err == nil {
		t.Error("expected compile error")
	}
	if _, err := NewExprFilter(`"not a bool"`); err == nil {
		t.Error("expected non-bool expression to be rejected")
	}
}

func TestExprFilter_EvalErrorSkipsFilter(t *testing.T) {
	f, err := NewExprFilter(`movie.runtime > 100`)
	if err != nil {
		t.Fatal(err)
	}
	// runtime 不存在时求值出错，FilterNode 保留候选
	items := []*core.Item{movieItem(7, 2000, 7)}
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Errorf("item should survive a failing filter")
	}
}
