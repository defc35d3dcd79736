package recall

import (
	"context"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
)

// Popularity 是热门召回源：目录按 log_popularity 降序（同分 ID 升序）排除种子后取前 TopN。
// 种子电影没有任何类型数据时，用作类型重叠召回的兜底。
// Item.Score 为 log_popularity。
type Popularity struct {
	Catalog *feature.Catalog

	// TopN 候选池上限，<= 0 时使用 core.DefaultCandidatePool
	TopN int
}

func (r *Popularity) Name() string { return "recall.popularity" }

func (r *Popularity) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	topN := poolSize(r.TopN)
	out := make([]*core.Item, 0, min(topN, r.Catalog.Len()))
	for _, i := range r.Catalog.ByPopularity() {
		if len(out) >= topN {
			break
		}
		m := r.Catalog.At(i)
		if rctx != nil && rctx.IsSeed(m.ID) {
			continue
		}
		out = append(out, newCandidate(m.ID, m.LogPopularity(), "popularity"))
	}
	return out, nil
}
