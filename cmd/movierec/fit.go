package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rushteam/movierec/config"
	"github.com/rushteam/movierec/dataset"
	"github.com/rushteam/movierec/feature"
	"github.com/rushteam/movierec/pkg/logging"
)

// 训练产物文件名
const (
	featureNamesFile = "feature_names.json"
	trainMatrixFile  = "train_matrix.csv"
	valMatrixFile    = "val_matrix.csv"
	testMatrixFile   = "test_matrix.csv"
	evalMatrixFile   = "eval_matrix.csv"
)

type fitOptions struct {
	data          string
	eval          string
	out           string
	config        string
	threshold     float64
	negatives     int
	testFrac      float64
	valFrac       float64
	seed          uint64
	referenceYear int
}

// runFit 离线构建特征产物：
//  1. 评分行按阈值打标签，并为每个用户补充负样本
//  2. 分层切分 train/val/test，词表只用 train 的真实交互拟合
//  3. 用户画像来自 watched 行与 train 中的评分行
//  4. 写出产物目录与各切分的特征矩阵；模型训练在外部完成
func runFit(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("fit", stderr)
	var o fitOptions
	fs.StringVar(&o.data, "data", "", "interaction log csv (required)")
	fs.StringVar(&o.eval, "eval", "", "optional held-out interaction log, transformed with the fitted bundle")
	fs.StringVar(&o.out, "out", "artifacts", "output directory")
	fs.StringVar(&o.config, "config", "", "application config; a memory/redis store also receives the bundle")
	fs.Float64Var(&o.threshold, "threshold", dataset.DefaultRatingThreshold, "ratings >= threshold are positives")
	fs.IntVar(&o.negatives, "negatives", dataset.DefaultNegativesPerUser, "negative samples per user")
	fs.Float64Var(&o.testFrac, "test", 0.15, "test fraction")
	fs.Float64Var(&o.valFrac, "val", 0.15, "validation fraction")
	fs.Uint64Var(&o.seed, "seed", 42, "random seed for sampling and splitting")
	fs.IntVar(&o.referenceYear, "reference-year", 0, "reference year for movie age (default 2026)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.data == "" {
		fs.Usage()
		return fmt.Errorf("fit: -data is required")
	}
	if o.testFrac < 0 || o.valFrac < 0 || o.testFrac+o.valFrac >= 1 {
		return fmt.Errorf("fit: invalid split fractions test=%v val=%v", o.testFrac, o.valFrac)
	}
	logging.Init(logging.Config{Level: "info", Format: "console", Output: stderr})
	return fit(ctx, o, stdout)
}

func fit(ctx context.Context, o fitOptions, stdout io.Writer) error {
	logger := logging.With().Str("component", "fit").Logger()

	ds, err := dataset.LoadCSV(o.data)
	if err != nil {
		return err
	}
	rated := ds.Rated(o.threshold)
	samples := append(rated, ds.NegativeSamples(rated, o.negatives, o.seed)...)
	split := dataset.StratifiedSplit(samples, o.testFrac, o.valFrac, o.seed)
	logger.Info().
		Int("rows", len(ds.Rows)).
		Int("movies", len(ds.Movies)).
		Int("rated", len(rated)).
		Int("samples", len(samples)).
		Int("train", len(split.Train)).
		Int("val", len(split.Val)).
		Int("test", len(split.Test)).
		Msg("dataset prepared")

	t := feature.Fit(dataset.RealOnly(split.Train), ds.Movies, feature.WithReferenceYear(o.referenceYear))
	profiles, err := t.BuildUserProfiles(ctx, dataset.ProfileSource(ds.Watched(), split.Train))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", o.out, err)
	}
	parts := []struct {
		file    string
		samples []dataset.Sample
	}{
		{trainMatrixFile, split.Train},
		{valMatrixFile, split.Val},
		{testMatrixFile, split.Test},
	}
	summary := map[string]int{}
	for _, p := range parts {
		n, err := writeMatrix(t, filepath.Join(o.out, p.file), dataset.Interactions(p.samples), profiles)
		if err != nil {
			return err
		}
		summary[p.file] = n
	}

	if o.eval != "" {
		evalDS, err := dataset.LoadCSV(o.eval)
		if err != nil {
			return fmt.Errorf("eval: %w", err)
		}
		n, err := writeMatrix(t, filepath.Join(o.out, evalMatrixFile), dataset.Interactions(evalDS.Rated(o.threshold)), profiles)
		if err != nil {
			return err
		}
		summary[evalMatrixFile] = n
	}

	if err := t.Save(o.out); err != nil {
		return err
	}
	if err := dataset.WriteFeatureNames(filepath.Join(o.out, featureNamesFile), t.FeatureNames()); err != nil {
		return err
	}
	if err := publish(ctx, t, o.config); err != nil {
		return err
	}

	return printJSON(stdout, map[string]any{
		"bundle_id":     t.BundleID(),
		"out":           o.out,
		"catalog_size":  t.Catalog().Len(),
		"feature_count": len(t.FeatureNames()),
		"users":         len(profiles),
		"matrices":      summary,
	})
}

// writeMatrix 转换并写出一个切分，返回写出的行数
func writeMatrix(t *feature.Transformer, path string, rows []feature.Interaction, profiles map[string]*feature.Profile) (int, error) {
	x, meta, err := t.Transform(rows, profiles)
	if err != nil {
		return 0, fmt.Errorf("transform %s: %w", filepath.Base(path), err)
	}
	if err := dataset.WriteMatrixFile(path, x, meta); err != nil {
		return 0, err
	}
	return len(meta), nil
}

// publish 配置了 memory/redis 存储时把产物写入存储
func publish(ctx context.Context, t *feature.Transformer, path string) error {
	if path == "" {
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	s, err := cfg.OpenStore(ctx)
	if err != nil || s == nil {
		return err
	}
	defer s.Close()
	return t.SaveToStore(ctx, s, cfg.Bundle)
}
