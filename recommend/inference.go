package recommend

import (
	"context"
	"math"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
	"github.com/rushteam/movierec/recall"
)

// InferenceUser 是推理时代表种子集合的合成用户
const InferenceUser = "__inference__"

// 候选 Item.Meta 中的电影属性键，同时是过滤表达式 movie.* 的字段名
const (
	MetaTitle       = "title"
	MetaGenres      = "genres"
	MetaGenresRaw   = "genres_raw"
	MetaLanguage    = "language"
	MetaYear        = "year"
	MetaVoteAverage = "vote_average"
	MetaPopularity  = "popularity"
	MetaRuntime     = "runtime"
)

// Candidates 是一次候选准备的结果。Items 与 Matrix.Rows 一一对应，
// Items[i].Features 指向同一行。无候选时 Items 为空，不是错误。
type Candidates struct {
	Context *core.RecommendContext
	Profile *feature.Profile
	SeedIDs []int64
	Items   []*core.Item
	Matrix  *feature.Matrix
	Source  string
}

// Inference 是推理入口：校验种子、构造种子画像、召回候选并组装特征矩阵。
// 只读共享 Transformer，可并发调用。
type Inference struct {
	transformer *feature.Transformer
	poolSize    int
}

// NewInference 创建推理入口，poolSize <= 0 时取默认候选池大小
func NewInference(t *feature.Transformer, poolSize int) *Inference {
	if poolSize <= 0 {
		poolSize = core.DefaultCandidatePool
	}
	return &Inference{transformer: t, poolSize: poolSize}
}

// Prepare 为种子集合准备候选特征矩阵。
//
//   - 种子中没有任何目录电影时返回 INVALID_INPUT
//   - explicit 为 nil 时按类型重叠召回（种子无类型时按热度兜底），非 nil 时只用给定列表
//   - pool <= 0 时使用构造时的候选池大小
func (in *Inference) Prepare(ctx context.Context, seeds, explicit []int64, pool int) (*Candidates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profile, valid, err := in.transformer.ProfileFor(seeds)
	if err != nil {
		return nil, err
	}
	if pool <= 0 {
		pool = in.poolSize
	}
	rctx := &core.RecommendContext{
		SeedIDs:    valid,
		SeedGenres: profile.Genres,
	}

	catalog := in.transformer.Catalog()
	sel := &recall.Selector{Catalog: catalog, PoolSize: pool}
	src := sel.Source(rctx, explicit)
	recalled, err := sel.Select(ctx, rctx, explicit)
	if err != nil {
		return nil, err
	}

	out := &Candidates{
		Context: rctx,
		Profile: profile,
		SeedIDs: valid,
		Items:   []*core.Item{},
		Matrix:  &feature.Matrix{},
		Source:  src.Name(),
	}
	if len(recalled) == 0 {
		return out, nil
	}

	rows := make([]feature.Interaction, len(recalled))
	for i, it := range recalled {
		rows[i] = feature.Interaction{UserID: InferenceUser, MovieID: it.ID}
	}
	x, meta, err := in.transformer.Transform(rows, map[string]*feature.Profile{InferenceUser: profile})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*core.Item, len(recalled))
	for _, it := range recalled {
		byID[it.ID] = it
	}
	out.Matrix = x
	out.Items = make([]*core.Item, 0, len(meta))
	for i, r := range meta {
		m, _ := catalog.Get(r.MovieID)
		it := byID[r.MovieID]
		it.Features = x.Rows[i]
		describe(it, m)
		out.Items = append(out.Items, it)
	}
	return out, nil
}

// describe 把电影展示属性写入候选 Meta
func describe(it *core.Item, m *feature.Movie) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	genres := m.Genres
	if genres == nil {
		genres = []string{}
	}
	it.Meta[MetaTitle] = m.Title
	it.Meta[MetaGenres] = genres
	it.Meta[MetaGenresRaw] = m.GenresRaw
	it.Meta[MetaLanguage] = m.Language
	it.Meta[MetaYear] = int64(m.Year())
	it.Meta[MetaVoteAverage] = m.VoteAverage()
	it.Meta[MetaPopularity] = math.Expm1(m.LogPopularity())
	it.Meta[MetaRuntime] = m.Runtime()
}
