package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/movierec/core"
)

func TestTopNNode(t *testing.T) {
	items := func() []*core.Item {
		return []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3), core.NewItem(4)}
	}
	tests := []struct {
		name   string
		n      int
		params map[string]any
		want   int
	}{
		{name: "truncate", n: 3, want: 3},
		{name: "no limit", n: 0, want: 4},
		{name: "larger than input", n: 10, want: 4},
		{name: "request param wins", n: 3, params: map[string]any{ParamTopN: 1}, want: 1},
		{name: "float param from json", n: 3, params: map[string]any{ParamTopN: float64(2)}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), &core.RecommendContext{Params: tt.params}, items())
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != tt.want {
				t.Errorf("len = %d, want %d", len(out), tt.want)
			}
			if len(out) > 0 && out[0].ID != 1 {
				t.Errorf("order changed: first id = %d", out[0].ID)
			}
		})
	}
}

func TestTopNNode_NilContext(t *testing.T) {
	out, _ := (&TopNNode{N: 2}).Process(context.Background(), nil, []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)})
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}
}
