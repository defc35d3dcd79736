package rank

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/movierec/core"
)

// sumClassifier 以特征和作为概率，并记录收到的行
type sumClassifier struct {
	rows [][]float64
	err  error
}

func (c *sumClassifier) Name() string { return "sum" }

func (c *sumClassifier) PredictProba(_ context.Context, rows [][]float64) ([]float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.rows = rows
	out := make([]float64, len(rows))
	for i, r := range rows {
		for _, v := range r {
			out[i] += v
		}
	}
	return out, nil
}

func item(id int64, features ...float64) *core.Item {
	it := core.NewItem(id)
	it.Features = features
	return it
}

func TestClassifierNode_Process(t *testing.T) {
	clf := &sumClassifier{}
	items := []*core.Item{
		item(5, 0.25, 0.25),
		item(3, 0.75, math.NaN()),
		nil,
		item(9, 0.5, 0),
		item(1, math.Inf(1), 0.5),
	}
	out, err := (&ClassifierNode{Classifier: clf}).Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 0.75 / 0.5 / 0.5 / 0.5，同分按 ID 升序
	wantIDs := []int64{3, 1, 5, 9}
	if len(out) != len(wantIDs) {
		t.Fatalf("got %d items, want %d", len(out), len(wantIDs))
	}
	for i, id := range wantIDs {
		if out[i].ID != id {
			t.Errorf("position %d: id = %d, want %d", i, out[i].ID, id)
		}
		if lbl := out[i].Labels[LabelRankModel]; lbl.Value != "sum" {
			t.Errorf("rank_model label = %+v", lbl)
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Score < out[i].Score {
			t.Errorf("scores not descending: %v then %v", out[i-1].Score, out[i].Score)
		}
	}
	for _, r := range clf.rows {
		for _, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("classifier received non-finite value in %v", r)
			}
		}
	}
}

func TestClassifierNode_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := (&ClassifierNode{Classifier: &sumClassifier{err: boom}}).Process(
		context.Background(), &core.RecommendContext{}, []*core.Item{item(1, 1)})
	if !errors.Is(err, boom) {
		t.Errorf("expected classifier error, got %v", err)
	}
}

func TestClassifierNode_Empty(t *testing.T) {
	out, err := (&ClassifierNode{Classifier: &sumClassifier{}}).Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("empty input = %v, %v", out, err)
	}
}
