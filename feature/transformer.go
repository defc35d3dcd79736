package feature

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pkg/logging"
)

var errNotFitted = core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFitted, "feature: transformer is not fitted")

// Transformer 持有拟合得到的词表、目录与规范特征名列表。
// fit/load 之后只读，可被多个请求并发使用；每个请求自行构造画像与特征矩阵。
type Transformer struct {
	vocab   *Vocabulary
	catalog *Catalog

	referenceYear int
	bundleID      string
	createdAt     time.Time

	mu           sync.RWMutex
	featureNames []string

	logger zerolog.Logger
}

// Option 配置 Transformer
type Option func(*Transformer)

// WithReferenceYear 设置电影年龄的参考年份。该值写入产物元数据，必须与训练时一致。
func WithReferenceYear(year int) Option {
	return func(t *Transformer) {
		if year > 0 {
			t.referenceYear = year
		}
	}
}

// WithLogger 设置日志器
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transformer) {
		t.logger = l
	}
}

func newTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		referenceYear: core.DefaultReferenceYear,
		logger:        logging.With().Str("component", "feature").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit 仅用训练交互拟合词表，并用完整电影数据构建目录。离线调用一次。
func Fit(train []Interaction, movies []RawMovie, opts ...Option) *Transformer {
	t := newTransformer(opts...)
	t.vocab = FitVocabulary(train, movies)
	t.catalog = BuildCatalog(movies, t.vocab, t.referenceYear)
	t.bundleID = uuid.NewString()
	t.createdAt = time.Now().UTC()

	t.logger.Info().
		Int("train_rows", len(train)).
		Int("genres", len(t.vocab.Genres)).
		Strs("languages", t.vocab.Languages).
		Int("median_year", t.vocab.MedianYear).
		Int("median_runtime", t.vocab.MedianRuntime).
		Int("catalog_size", t.catalog.Len()).
		Int("features", t.catalog.layout.Width()).
		Msg("transformer fitted")
	return t
}

// Vocabulary 返回词表
func (t *Transformer) Vocabulary() *Vocabulary { return t.vocab }

// Catalog 返回电影目录
func (t *Transformer) Catalog() *Catalog { return t.catalog }

// Layout 返回特征布局
func (t *Transformer) Layout() *Layout { return t.catalog.layout }

// ReferenceYear 返回电影年龄的参考年份
func (t *Transformer) ReferenceYear() int { return t.referenceYear }

// BundleID 返回本次拟合的产物标识，词表、目录与模型通过它绑定
func (t *Transformer) BundleID() string { return t.bundleID }

// FeatureNames 返回规范特征名列表：已捕获（或加载）的列表优先，否则为布局推导的列表。
func (t *Transformer) FeatureNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.featureNames != nil {
		return slices.Clone(t.featureNames)
	}
	return slices.Clone(t.catalog.layout.names)
}

// CheckFeatureNames 校验外部特征名列表（例如训练产出的 feature_names.json 或模型自带的列）
// 与本转换器在名称、顺序、数量上完全一致。
func (t *Transformer) CheckFeatureNames(names []string) error {
	return checkFeatureNames(t.FeatureNames(), names)
}

// ProfileFor 为一组电影 ID 构造画像。不在目录中的 ID 被忽略，重复 ID 只计一次；
// 若没有任何有效 ID，返回 INVALID_INPUT。
func (t *Transformer) ProfileFor(ids []int64) (*Profile, []int64, error) {
	if t == nil || t.catalog == nil {
		return nil, nil, errNotFitted
	}
	valid := make([]int64, 0, len(ids))
	movies := make([]*Movie, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if m, ok := t.catalog.Get(id); ok {
			valid = append(valid, id)
			movies = append(movies, m)
		}
	}
	if len(movies) == 0 {
		return nil, nil, core.NewDomainError(core.ModuleInference, core.ErrorCodeInvalidInput,
			fmt.Sprintf("none of the provided movie ids %v are in the catalog", ids))
	}
	return AggregateProfile(t.catalog.layout, movies), valid, nil
}

// BuildUserProfiles 按用户分组交互，只保留目录内电影，为每个用户聚合画像。
// 同一用户的重复电影只计一次，没有任何目录电影的用户被跳过。多个用户并行计算。
func (t *Transformer) BuildUserProfiles(ctx context.Context, rows []Interaction) (map[string]*Profile, error) {
	if t == nil || t.catalog == nil {
		return nil, errNotFitted
	}

	var users []string
	byUser := make(map[string][]*Movie)
	seen := make(map[string]map[int64]struct{})
	for _, r := range rows {
		ids, ok := seen[r.UserID]
		if !ok {
			ids = make(map[int64]struct{})
			seen[r.UserID] = ids
			users = append(users, r.UserID)
		}
		if _, dup := ids[r.MovieID]; dup {
			continue
		}
		ids[r.MovieID] = struct{}{}
		if m, ok := t.catalog.Get(r.MovieID); ok {
			byUser[r.UserID] = append(byUser[r.UserID], m)
		}
	}

	results := make([]*Profile, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, uid := range users {
		movies := byUser[uid]
		if len(movies) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = AggregateProfile(t.catalog.layout, movies)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles := make(map[string]*Profile, len(users))
	for i, uid := range users {
		if results[i] != nil {
			profiles[uid] = results[i]
		}
	}
	t.logger.Debug().Int("users", len(users)).Int("profiles", len(profiles)).Msg("user profiles built")
	return profiles, nil
}
