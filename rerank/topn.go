package rerank

import (
	"context"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pipeline"
)

// ParamTopN 是请求级 top_n 参数名
const ParamTopN = "top_n"

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
// 请求参数 top_n 优先于 N。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.ClassifierNode{...}, // 排序
//	        &rerank.TopNNode{N: 3},    // 截取 Top 3
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则返回所有物品（不截断）
	// 如果 N > len(items)，则返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := rctx.ParamInt(ParamTopN, n.N)
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
