package recall

import (
	"context"

	"github.com/rushteam/movierec/core"
)

// Source 表示一个候选召回源（类型重叠 / 热门兜底 / 显式列表）。
// 返回的 Item 只带 ID、召回分与召回来源 Label，特征由推理阶段统一补齐。
//
// 约定：
//   - 不返回种子电影
//   - 不返回目录外电影
//   - 返回顺序即候选顺序，必须是确定的
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Label keys
const (
	LabelRecallSource = "recall_source"
)

func newCandidate(id int64, score float64, source string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.PutLabel(LabelRecallSource, core.Label{Value: source, Source: "recall"})
	return it
}
