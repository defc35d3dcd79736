package recommend

import (
	"context"
	"fmt"

	"github.com/rushteam/movierec/config"
	"github.com/rushteam/movierec/config/builders"
	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
	"github.com/rushteam/movierec/model"
	"github.com/rushteam/movierec/pkg/logging"
)

// NewEngineFromConfig 按应用配置组装引擎：
//  1. 打开产物存储（file 类型直接读目录）
//  2. 加载转换器；存储中没有该 bundle 且配置了 artifacts_dir 时从目录加载并写入存储
//  3. 创建分类器并绑定特征列
//  4. 构建 pipeline 段配置的过滤节点，需要外部数据的过滤器绑定到本引擎的存储
func NewEngineFromConfig(ctx context.Context, cfg *config.AppConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.With().Str("component", "recommend").Logger()

	s, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	opts := []EngineOption{
		WithCandidatePool(cfg.CandidatePool),
		WithTopN(cfg.TopN),
		WithTimeout(cfg.Timeout),
		WithLogger(logger),
	}
	fail := func(err error) (*Engine, error) {
		if s != nil {
			_ = s.Close()
		}
		return nil, err
	}

	var t *feature.Transformer
	if s == nil {
		t, err = feature.Load(cfg.ArtifactsDir)
	} else {
		opts = append(opts, withCloser(s.Close))
		t, err = loadFromStore(ctx, s, cfg)
	}
	if err != nil {
		return fail(err)
	}

	clf, err := model.NewClassifier(cfg.Classifier, cfg.ArtifactsDir)
	if err != nil {
		return fail(fmt.Errorf("create classifier: %w", err))
	}
	if c, ok := clf.(interface{ Close(context.Context) error }); ok {
		opts = append(opts, withCloser(func() error { return c.Close(context.Background()) }))
	}

	filters, err := cfg.Pipeline.BuildPipeline(builders.Factory(s))
	if err != nil {
		return fail(fmt.Errorf("build pipeline: %w", err))
	}
	opts = append(opts, WithFilters(filters))

	e, err := NewEngine(t, clf, opts...)
	if err != nil {
		return fail(err)
	}
	logger.Info().
		Str("bundle_id", t.BundleID()).
		Int("catalog_size", t.Catalog().Len()).
		Int("features", len(t.FeatureNames())).
		Str("classifier", clf.Name()).
		Int("filters", len(filters.Nodes)).
		Msg("engine ready")
	return e, nil
}

func loadFromStore(ctx context.Context, s core.Store, cfg *config.AppConfig) (*feature.Transformer, error) {
	t, err := feature.LoadFromStore(ctx, s, cfg.Bundle)
	if err == nil || !core.IsNotFound(err) || cfg.ArtifactsDir == "" {
		return t, err
	}
	t, err = feature.Load(cfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	if err := t.SaveToStore(ctx, s, cfg.Bundle); err != nil {
		return nil, err
	}
	return t, nil
}
