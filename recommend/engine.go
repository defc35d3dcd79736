package recommend

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
	"github.com/rushteam/movierec/pipeline"
	"github.com/rushteam/movierec/pkg/logging"
	"github.com/rushteam/movierec/pkg/metrics"
	"github.com/rushteam/movierec/rank"
	"github.com/rushteam/movierec/rerank"
)

// 浏览接口分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MovieRecord 是对外展示的电影记录
type MovieRecord struct {
	MovieID     int64    `json:"movie_id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	Year        int      `json:"year"`
	VoteAverage float64  `json:"vote_average"`
	Overview    string   `json:"overview"`
	Popularity  *float64 `json:"popularity,omitempty"`
}

// Recommendation 是一条推荐结果
type Recommendation struct {
	MovieRecord
	Probability    float64 `json:"probability"`
	ProbabilityPct string  `json:"probability_pct"`
}

// ProfileSummary 是种子画像的描述性摘要，不参与打分
type ProfileSummary struct {
	NSeedMovies    int      `json:"n_seed_movies"`
	AvgVoteAverage float64  `json:"avg_vote_average"`
	AvgPopularity  float64  `json:"avg_popularity"`
	AvgRuntime     float64  `json:"avg_runtime"`
	GenresInSeeds  []string `json:"genres_in_seeds"`
}

// RecommendResponse 推荐响应。没有候选时 Recommendations 为空且不带摘要。
type RecommendResponse struct {
	RequestID       string           `json:"request_id"`
	Recommendations []Recommendation `json:"recommendations"`
	SeedMovies      []MovieRecord    `json:"seed_movies"`
	Summary         *ProfileSummary  `json:"user_profile_summary,omitempty"`
	CandidateSource string           `json:"candidate_source,omitempty"`
}

// MovieList 分页的电影列表
type MovieList struct {
	Movies   []MovieRecord `json:"movies"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// Info 产物与模型信息
type Info struct {
	BundleID      string   `json:"bundle_id"`
	CreatedAt     string   `json:"created_at,omitempty"`
	CatalogSize   int      `json:"catalog_size"`
	FeatureCount  int      `json:"feature_count"`
	ReferenceYear int      `json:"reference_year"`
	Classifier    string   `json:"classifier"`
	CandidatePool int      `json:"candidate_pool"`
	TopN          int      `json:"top_n"`
	Filters       []string `json:"filters"`
}

// Engine 是推荐引擎：候选准备 -> 过滤节点 -> 分类器打分 -> Top-N。
// 创建后只读，可被多个请求并发使用。
type Engine struct {
	transformer *feature.Transformer
	classifier  core.Classifier
	inference   *Inference
	filters     *pipeline.Pipeline

	poolSize int
	topN     int
	timeout  time.Duration

	closers []func() error
	logger  zerolog.Logger
}

// EngineOption 配置 Engine
type EngineOption func(*Engine)

// WithFilters 设置打分前执行的过滤链
func WithFilters(p *pipeline.Pipeline) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.filters = p
		}
	}
}

// WithCandidatePool 设置候选池大小
func WithCandidatePool(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.poolSize = n
		}
	}
}

// WithTopN 设置默认推荐数量
func WithTopN(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithTimeout 设置单次推荐的超时，0 表示不限制
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger 设置日志器
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// withCloser 登记 Close 时需要释放的资源
func withCloser(fn func() error) EngineOption {
	return func(e *Engine) {
		e.closers = append(e.closers, fn)
	}
}

// NewEngine 创建推荐引擎。分类器实现 core.FeatureBinder 时先绑定转换器的特征列，
// 列不一致返回 FEATURE_MISMATCH。
func NewEngine(t *feature.Transformer, clf core.Classifier, opts ...EngineOption) (*Engine, error) {
	if t == nil || t.Catalog() == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFitted, "recommend: transformer is not fitted")
	}
	if clf == nil {
		return nil, fmt.Errorf("recommend: classifier is required")
	}
	e := &Engine{
		transformer: t,
		classifier:  clf,
		filters:     &pipeline.Pipeline{},
		poolSize:    core.DefaultCandidatePool,
		topN:        core.DefaultTopN,
		logger:      logging.With().Str("component", "recommend").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if binder, ok := clf.(core.FeatureBinder); ok {
		if err := binder.Bind(t.FeatureNames()); err != nil {
			metrics.FeatureMismatches.Inc()
			return nil, fmt.Errorf("bind classifier %s: %w", clf.Name(), err)
		}
	}
	e.inference = NewInference(t, e.poolSize)
	return e, nil
}

// Transformer 返回引擎使用的转换器
func (e *Engine) Transformer() *feature.Transformer { return e.transformer }

// Recommend 为 5 部种子电影生成推荐。
//
//   - 请求结构不合法或种子都不在目录中时返回 INVALID_INPUT
//   - 没有候选时返回空推荐，不是错误
//   - 排序按概率降序，概率相同按电影 ID 升序
func (e *Engine) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	start := time.Now()
	resp, outcome, err := e.recommend(ctx, req)
	metrics.RecommendRequests.WithLabelValues(outcome).Inc()
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if outcome == "error" {
			e.logger.Error().Err(err).Msg("recommend failed")
		}
		return nil, err
	}
	e.logger.Debug().
		Str("request_id", resp.RequestID).
		Int("seeds", len(resp.SeedMovies)).
		Str("source", resp.CandidateSource).
		Int("recommendations", len(resp.Recommendations)).
		Dur("latency", time.Since(start)).
		Msg("recommend done")
	return resp, nil
}

func (e *Engine) recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "invalid", err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	topN := req.TopN
	if topN <= 0 {
		topN = e.topN
	}

	cands, err := e.inference.Prepare(ctx, req.MovieIDs, req.Candidates, e.poolSize)
	if err != nil {
		if core.IsInvalidInput(err) {
			return nil, "invalid", err
		}
		return nil, "error", err
	}

	catalog := e.transformer.Catalog()
	resp := &RecommendResponse{
		RequestID:       uuid.NewString(),
		Recommendations: []Recommendation{},
		SeedMovies:      make([]MovieRecord, 0, len(cands.SeedIDs)),
		CandidateSource: cands.Source,
	}
	seeds := make([]*feature.Movie, 0, len(cands.SeedIDs))
	for _, id := range cands.SeedIDs {
		m, _ := catalog.Get(id)
		seeds = append(seeds, m)
		resp.SeedMovies = append(resp.SeedMovies, movieRecord(m, false))
	}
	if len(cands.Items) == 0 {
		return resp, "empty", nil
	}

	rctx := cands.Context
	rctx.RequestID = resp.RequestID
	rctx.Params = map[string]any{rerank.ParamTopN: topN}
	p := e.filters.Append(
		&rank.ClassifierNode{Classifier: e.classifier},
		&rerank.TopNNode{N: topN},
	)
	ranked, err := p.Run(ctx, rctx, cands.Items)
	if err != nil {
		return nil, "error", err
	}

	for _, it := range ranked {
		m, ok := catalog.Get(it.ID)
		if !ok {
			continue
		}
		resp.Recommendations = append(resp.Recommendations, Recommendation{
			MovieRecord:    movieRecord(m, false),
			Probability:    round(it.Score, 4),
			ProbabilityPct: fmt.Sprintf("%.1f%%", it.Score*100),
		})
	}
	resp.Summary = summarize(seeds, cands.Profile)

	outcome := "ok"
	if len(resp.Recommendations) == 0 {
		outcome = "empty"
	}
	return resp, outcome, nil
}

// summarize 计算种子电影的平均评分、平均热度（还原为原始尺度）、平均时长与类型并集
func summarize(seeds []*feature.Movie, profile *feature.Profile) *ProfileSummary {
	votes := make([]float64, len(seeds))
	pops := make([]float64, len(seeds))
	runtimes := make([]float64, len(seeds))
	for i, m := range seeds {
		votes[i] = m.VoteAverage()
		pops[i] = m.LogPopularity()
		runtimes[i] = m.Runtime()
	}
	genres := profile.GenreList()
	if genres == nil {
		genres = []string{}
	}
	return &ProfileSummary{
		NSeedMovies:    len(seeds),
		AvgVoteAverage: round(stat.Mean(votes, nil), 2),
		AvgPopularity:  round(math.Expm1(stat.Mean(pops, nil)), 2),
		AvgRuntime:     round(stat.Mean(runtimes, nil), 1),
		GenresInSeeds:  genres,
	}
}

// Search 按标题子串（不区分大小写）搜索，结果保持目录顺序
func (e *Engine) Search(query string, page, pageSize int) *MovieList {
	catalog := e.transformer.Catalog()
	q := strings.ToLower(strings.TrimSpace(query))
	matched := make([]int, 0)
	for i := 0; i < catalog.Len(); i++ {
		if strings.Contains(strings.ToLower(catalog.At(i).Title), q) {
			matched = append(matched, i)
		}
	}
	return e.page(matched, page, pageSize)
}

// List 按热度降序分页列出目录
func (e *Engine) List(page, pageSize int) *MovieList {
	return e.page(e.transformer.Catalog().ByPopularity(), page, pageSize)
}

func (e *Engine) page(order []int, page, pageSize int) *MovieList {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	out := &MovieList{Movies: []MovieRecord{}, Total: len(order), Page: page, PageSize: pageSize}
	from := (page - 1) * pageSize
	if from >= len(order) {
		return out
	}
	to := min(from+pageSize, len(order))
	catalog := e.transformer.Catalog()
	for _, i := range order[from:to] {
		out.Movies = append(out.Movies, movieRecord(catalog.At(i), true))
	}
	return out
}

// Info 返回产物与模型信息
func (e *Engine) Info() *Info {
	meta := e.transformer.Metadata()
	filters := make([]string, 0, len(e.filters.Nodes))
	for _, n := range e.filters.Nodes {
		filters = append(filters, n.Name())
	}
	return &Info{
		BundleID:      meta.BundleID,
		CreatedAt:     meta.CreatedAt,
		CatalogSize:   e.transformer.Catalog().Len(),
		FeatureCount:  len(meta.FeatureNames),
		ReferenceYear: e.transformer.ReferenceYear(),
		Classifier:    e.classifier.Name(),
		CandidatePool: e.poolSize,
		TopN:          e.topN,
		Filters:       filters,
	}
}

// Close 释放存储与远程分类器连接
func (e *Engine) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}

func movieRecord(m *feature.Movie, withPopularity bool) MovieRecord {
	genres := append([]string{}, m.Genres...)
	rec := MovieRecord{
		MovieID:     m.ID,
		Title:       m.Title,
		Genres:      genres,
		Year:        int(m.Year()),
		VoteAverage: round(m.VoteAverage(), 1),
		Overview:    m.Overview,
	}
	if withPopularity {
		pop := round(math.Expm1(m.LogPopularity()), 2)
		rec.Popularity = &pop
	}
	return rec
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
