package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/movierec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式，key 为表达式原文
	programs sync.Map
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("movie", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可被并发求值。
//
// 表达式语法（CEL 标准语法）：
//   - 电影属性：movie.year >= 1990 / movie.vote_average > 6.5 / movie.language == "en"
//   - 类型："Drama" in movie.genres
//   - 分数：item.score > 0.7
//   - 标签：label.recall_source == "genre_overlap"
//   - 请求参数：movie.year >= rctx.params.min_year
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式并检查其返回类型为 bool。同一表达式只编译一次。
func Compile(expr string) (*Program, error) {
	if cached, ok := programs.Load(expr); ok {
		return cached.(*Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %v", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	p := &Program{expr: expr, prg: prg}
	actual, _ := programs.LoadOrStore(expr, p)
	return actual.(*Program), nil
}

// String 返回表达式原文
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值。
// 对于不存在的 key，CEL 会返回错误；存在性检查请使用 has(movie.key)。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译（命中缓存时跳过）并求值，空表达式视为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(item.Labels))
	labelValues := make(map[string]interface{}, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = map[string]interface{}{"value": v.Value, "source": v.Source}
		labelValues[k] = v.Value
	}

	movie := make(map[string]interface{}, len(item.Meta)+1)
	for k, v := range item.Meta {
		movie[k] = v
	}
	movie["id"] = item.ID

	in := map[string]interface{}{
		"item": map[string]interface{}{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		},
		"movie": movie,
		"label": labelValues,
		"rctx":  map[string]interface{}{},
	}
	if rctx != nil {
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		in["rctx"] = map[string]interface{}{
			"request_id": rctx.RequestID,
			"seed_ids":   rctx.SeedIDs,
			"params":     params,
		}
	}
	return in
}
