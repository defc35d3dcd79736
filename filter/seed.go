package filter

import (
	"context"

	"github.com/rushteam/movierec/core"
)

// SeedFilter 过滤掉种子电影。召回源已经排除种子，这里作为 Pipeline 上的兜底约束。
type SeedFilter struct{}

func (f *SeedFilter) Name() string { return "filter.seed" }

func (f *SeedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx != nil && rctx.IsSeed(item.ID), nil
}
