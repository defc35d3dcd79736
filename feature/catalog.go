package feature

import (
	"math"
	"sort"
	"sync"

	"github.com/rushteam/movierec/pkg/metrics"
)

const maxOverviewLen = 2000

// Movie 是目录中的一部电影：展示属性 + 与 Layout.MovieColumns 对齐的静态特征行。
type Movie struct {
	ID        int64
	Title     string
	GenresRaw string
	Genres    []string // 解析后的原始类型列表（不受词表限制）
	Language  string
	Overview  string
	Features  []float64
}

func (m *Movie) VoteAverage() float64   { return m.Features[colVoteAverage] }
func (m *Movie) LogVoteCount() float64  { return m.Features[colLogVoteCount] }
func (m *Movie) LogPopularity() float64 { return m.Features[colLogPopularity] }
func (m *Movie) Runtime() float64       { return m.Features[colRuntime] }
func (m *Movie) Year() float64          { return m.Features[colMovieYear] }
func (m *Movie) IsCold() bool           { return m.Features[colIsCold] == 1 }

// Catalog 是按电影 ID 索引的静态特征表。构建或加载后不可变，可被并发读取。
type Catalog struct {
	layout *Layout
	movies []*Movie
	index  map[int64]int

	popOnce  sync.Once
	popOrder []int
}

// BuildCatalog 由原始电影记录与词表构建目录：重复 ID 以首次出现为准，
// 缺失数值以词表中位数回填，缺失文本视为不存在。
func BuildCatalog(raw []RawMovie, v *Vocabulary, referenceYear int) *Catalog {
	layout := NewLayout(v)
	c := &Catalog{
		layout: layout,
		movies: make([]*Movie, 0, len(raw)),
		index:  make(map[int64]int, len(raw)),
	}

	langIdx := make(map[string]int, len(v.Languages))
	for i, l := range v.Languages {
		langIdx[l] = i
	}
	genreIdx := make(map[string]int, len(v.Genres))
	for i, g := range v.Genres {
		genreIdx[g] = i
	}

	var imputed imputations
	for i := range raw {
		r := &raw[i]
		if _, dup := c.index[r.ID]; dup {
			continue
		}
		m := buildMovie(r, layout, langIdx, genreIdx, v, float64(referenceYear), &imputed)
		c.index[r.ID] = len(c.movies)
		c.movies = append(c.movies, m)
	}
	imputed.report()
	metrics.CatalogSize.Set(float64(len(c.movies)))
	return c
}

type imputations struct {
	voteAverage, voteCount, popularity, runtime, year int
}

func (im *imputations) report() {
	add := func(field string, n int) {
		if n > 0 {
			metrics.CatalogImputations.WithLabelValues(field).Add(float64(n))
		}
	}
	add("vote_average", im.voteAverage)
	add("vote_count", im.voteCount)
	add("popularity", im.popularity)
	add("runtime", im.runtime)
	add("release_year", im.year)
}

func buildMovie(
	r *RawMovie,
	layout *Layout,
	langIdx, genreIdx map[string]int,
	v *Vocabulary,
	referenceYear float64,
	imputed *imputations,
) *Movie {
	row := make([]float64, len(layout.movieCols))

	row[colVoteAverage] = valueOr(r.VoteAverage, 0, &imputed.voteAverage)
	voteCount := valueOr(r.VoteCount, 0, &imputed.voteCount)
	row[colLogVoteCount] = math.Log1p(voteCount)
	row[colLogPopularity] = math.Log1p(valueOr(r.Popularity, 0, &imputed.popularity))
	row[colRuntime] = valueOr(r.Runtime, float64(v.MedianRuntime), &imputed.runtime)

	year, ok := ExtractYear(r.ReleaseDate)
	if !ok {
		year = v.MedianYear
		imputed.year++
	}
	row[colMovieYear] = float64(year)
	row[colMovieAge] = referenceYear - float64(year)

	genres := ParseGenres(r.Genres)
	if r.Overview != nil {
		row[colHasOverview] = 1
		row[colOverviewLen] = math.Min(float64(len([]rune(*r.Overview))), maxOverviewLen)
	}
	if r.Keywords != nil {
		row[colHasKeywords] = 1
		row[colNKeywords] = float64(countKeywords(*r.Keywords))
	}
	row[colNumGenres] = float64(len(genres))
	if voteCount == 0 {
		row[colIsCold] = 1
	}

	if i, ok := langIdx[r.Language]; ok {
		row[layout.langStart+i] = 1
	}
	for _, g := range genres {
		if i, ok := genreIdx[g]; ok {
			row[layout.genreStart+i] = 1
		}
	}

	// 非有限值（如负数的 log1p）一律置 0，与特征矩阵的缺失填充一致
	for i, x := range row {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			row[i] = 0
		}
	}

	m := &Movie{
		ID:        r.ID,
		Title:     r.Title,
		GenresRaw: r.Genres,
		Genres:    genres,
		Language:  r.Language,
		Features:  row,
	}
	if r.Overview != nil {
		m.Overview = *r.Overview
	}
	return m
}

func valueOr(p *float64, fallback float64, missing *int) float64 {
	if p == nil || math.IsNaN(*p) {
		*missing++
		return fallback
	}
	return *p
}

// Layout 返回目录对应的特征布局
func (c *Catalog) Layout() *Layout { return c.layout }

// Len 返回电影数量
func (c *Catalog) Len() int { return len(c.movies) }

// At 返回第 i 部电影（按首次出现顺序）
func (c *Catalog) At(i int) *Movie { return c.movies[i] }

// Get 按 ID 查找电影
func (c *Catalog) Get(id int64) (*Movie, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.movies[i], true
}

// Contains 判断电影是否在目录中
func (c *Catalog) Contains(id int64) bool {
	_, ok := c.index[id]
	return ok
}

// ByPopularity 返回按 log_popularity 降序、ID 升序排列的电影下标，首次调用时计算。
func (c *Catalog) ByPopularity() []int {
	c.popOnce.Do(func() {
		order := make([]int, len(c.movies))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ma, mb := c.movies[order[a]], c.movies[order[b]]
			if ma.LogPopularity() != mb.LogPopularity() {
				return ma.LogPopularity() > mb.LogPopularity()
			}
			return ma.ID < mb.ID
		})
		c.popOrder = order
	})
	return c.popOrder
}

func newCatalog(layout *Layout, movies []*Movie) *Catalog {
	c := &Catalog{
		layout: layout,
		movies: movies,
		index:  make(map[int64]int, len(movies)),
	}
	for i, m := range movies {
		c.index[m.ID] = i
	}
	metrics.CatalogSize.Set(float64(len(movies)))
	return c
}
