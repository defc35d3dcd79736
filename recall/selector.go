package recall

import (
	"context"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
	"github.com/rushteam/movierec/pkg/metrics"
)

// Selector 按规则挑选召回源：
//   - 调用方给出候选列表（非 nil，可以为空）时使用 Explicit
//   - 种子触达类型集合非空时使用 GenreOverlap（无重叠时结果为空，不再兜底）
//   - 否则使用 Popularity
type Selector struct {
	Catalog  *feature.Catalog
	PoolSize int
}

// Source 返回本次请求适用的召回源
func (s *Selector) Source(rctx *core.RecommendContext, explicit []int64) Source {
	switch {
	case explicit != nil:
		return &Explicit{Catalog: s.Catalog, IDs: explicit}
	case rctx != nil && len(rctx.SeedGenres) > 0:
		return &GenreOverlap{Catalog: s.Catalog, TopN: s.PoolSize}
	default:
		return &Popularity{Catalog: s.Catalog, TopN: s.PoolSize}
	}
}

// Select 执行召回并记录来源与候选池大小
func (s *Selector) Select(ctx context.Context, rctx *core.RecommendContext, explicit []int64) ([]*core.Item, error) {
	src := s.Source(rctx, explicit)
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	metrics.CandidateSource.WithLabelValues(src.Name()).Inc()
	metrics.CandidatePoolSize.Observe(float64(len(items)))
	return items, nil
}
