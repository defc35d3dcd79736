package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/movierec/core"
)

type dropOdd struct{}

func (dropOdd) Name() string { return "test.drop_odd" }
func (dropOdd) Kind() Kind   { return KindFilter }
func (dropOdd) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	out := items[:0]
	for _, it := range items {
		if it.ID%2 == 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

type failing struct{}

func (failing) Name() string { return "test.failing" }
func (failing) Kind() Kind   { return KindRank }
func (failing) Process(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
	return nil, errors.New("boom")
}

func TestPipeline_Run(t *testing.T) {
	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3), core.NewItem(4)}
	p := &Pipeline{Nodes: []Node{dropOdd{}}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 || out[0].ID != 2 || out[1].ID != 4 {
		t.Errorf("unexpected output %v", out)
	}

	_, err = p.Append(failing{}).Run(context.Background(), &core.RecommendContext{}, out)
	if err == nil || err.Error() != "test.failing: boom" {
		t.Errorf("expected wrapped node error, got %v", err)
	}
	if len(p.Nodes) != 1 {
		t.Errorf("Append must not modify the receiver")
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Pipeline{Nodes: []Node{dropOdd{}}}).Run(ctx, &core.RecommendContext{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConfig_BuildPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	data := []byte("name: test\nnodes:\n  - type: test.drop_odd\n    config:\n      k: 1\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if cfg.Name != "test" || len(cfg.Nodes) != 1 || cfg.Nodes[0].Config["k"] != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	f := NewNodeFactory()
	if _, err := cfg.BuildPipeline(f); err == nil {
		t.Fatal("expected unknown node type error")
	}
	f.Register("test.drop_odd", func(map[string]interface{}) (Node, error) { return dropOdd{}, nil })
	if !f.Has("test.drop_odd") {
		t.Fatal("Has after Register")
	}
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if len(p.Nodes) != 1 || p.Nodes[0].Name() != "test.drop_odd" {
		t.Errorf("unexpected nodes %v", p.Nodes)
	}
}
