package recall

import (
	"context"
	"sort"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
)

// GenreOverlap 是基于类型重叠的召回源。
//
// 对目录中每部非种子电影，计算其类型集合与种子触达类型集合（rctx.SeedGenres）的交集大小，
// 只保留交集 >= 1 的电影，按交集大小降序、ID 升序取前 TopN。
// Item.Score 为交集大小。
type GenreOverlap struct {
	Catalog *feature.Catalog

	// TopN 候选池上限，<= 0 时使用 core.DefaultCandidatePool
	TopN int
}

func (r *GenreOverlap) Name() string { return "recall.genre_overlap" }

func (r *GenreOverlap) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || len(rctx.SeedGenres) == 0 {
		return nil, nil
	}

	type scored struct {
		id      int64
		overlap int
	}
	scores := make([]scored, 0, r.Catalog.Len())
	for i := 0; i < r.Catalog.Len(); i++ {
		m := r.Catalog.At(i)
		if rctx.IsSeed(m.ID) {
			continue
		}
		if n := overlap(m.Genres, rctx.SeedGenres); n > 0 {
			scores = append(scores, scored{id: m.ID, overlap: n})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].overlap != scores[j].overlap {
			return scores[i].overlap > scores[j].overlap
		}
		return scores[i].id < scores[j].id
	})
	if topN := poolSize(r.TopN); len(scores) > topN {
		scores = scores[:topN]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		out = append(out, newCandidate(s.id, float64(s.overlap), "genre_overlap"))
	}
	return out, nil
}

// overlap 统计去重后的类型交集大小
func overlap(genres []string, seedGenres map[string]struct{}) int {
	n := 0
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		if _, ok := seedGenres[g]; ok {
			n++
		}
	}
	return n
}

func poolSize(n int) int {
	if n <= 0 {
		return core.DefaultCandidatePool
	}
	return n
}
