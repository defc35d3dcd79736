package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/movierec/core"
)

// Pipeline 把候选处理拆成可组合的 Node 链：过滤 -> 打分排序 -> 截断。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node。任一 Node 出错时中止并返回带 Node 名称的错误；
// 候选被过滤为空时继续执行，空结果不是错误。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Append 返回在末尾追加 Node 后的新 Pipeline，原 Pipeline 不变
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	out := &Pipeline{Nodes: make([]Node, 0, len(p.Nodes)+len(nodes))}
	out.Nodes = append(out.Nodes, p.Nodes...)
	out.Nodes = append(out.Nodes, nodes...)
	return out
}
