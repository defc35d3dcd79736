package recall

import (
	"context"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
)

// Explicit 是调用方显式给出的候选列表：保留目录内的非种子电影，重复 ID 以首次出现为准，顺序不变。
type Explicit struct {
	Catalog *feature.Catalog
	IDs     []int64
}

func (r *Explicit) Name() string { return "recall.explicit" }

func (r *Explicit) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	out := make([]*core.Item, 0, len(r.IDs))
	seen := make(map[int64]struct{}, len(r.IDs))
	for _, id := range r.IDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !r.Catalog.Contains(id) || (rctx != nil && rctx.IsSeed(id)) {
			continue
		}
		out = append(out, newCandidate(id, 0, "explicit"))
	}
	return out, nil
}
