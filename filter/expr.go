package filter

import (
	"context"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pkg/dsl"
)

// ExprFilter 是 CEL 表达式过滤器：表达式描述保留条件，结果为 false 的候选被过滤。
//
// 示例：
//
//	f, _ := filter.NewExprFilter(`movie.year >= 1990 && movie.vote_average >= 6`)
//
// 可用变量见 dsl.Program。
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式，语法错误或返回类型不是 bool 时报错
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回表达式原文
func (f *ExprFilter) Expr() string { return f.program.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
