package model

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/movierec/core"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 二分类模型。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 权重按特征名保存；Bind 时按转换器的特征列顺序解析为位置权重，打分时只做点积。
//
// 模型文件格式：
//
//	{"bias": -1.2, "weights": {"vote_average": 0.3, ...}, "feature_names": [...]}
//
// feature_names 可选；给出时必须与转换器的特征列完全一致。
type LRModel struct {
	Bias         float64            // 偏置项 (Bias / Intercept)
	Weights      map[string]float64 // 特征权重 (Weights / Coefficients)
	FeatureNames []string           // 训练时的特征列（可选）

	coef []float64
}

type lrFile struct {
	Bias         float64            `json:"bias"`
	Weights      map[string]float64 `json:"weights"`
	FeatureNames []string           `json:"feature_names,omitempty"`
}

// LoadLRModel 从 JSON 文件加载模型
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeNotFound, "lr: model file "+path+" not found", err)
		}
		return nil, err
	}
	var raw lrFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("lr: parse %s: %w", path, err)
	}
	return &LRModel{Bias: raw.Bias, Weights: raw.Weights, FeatureNames: raw.FeatureNames}, nil
}

// Save 写出模型文件
func (m *LRModel) Save(path string) error {
	data, err := json.MarshalIndent(lrFile{Bias: m.Bias, Weights: m.Weights, FeatureNames: m.FeatureNames}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (m *LRModel) Name() string { return "lr" }

// Bind 把按名称的权重解析为与 featureNames 对齐的位置权重。
// 模型自带的 feature_names 与之不一致，或权重引用了未知特征时返回 FEATURE_MISMATCH。
func (m *LRModel) Bind(featureNames []string) error {
	if m.FeatureNames != nil && !slices.Equal(m.FeatureNames, featureNames) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeFeatureMismatch,
			fmt.Sprintf("lr: model trained on %d features, transformer produces %d with different names/order",
				len(m.FeatureNames), len(featureNames)))
	}
	pos := make(map[string]int, len(featureNames))
	for i, n := range featureNames {
		pos[n] = i
	}
	var unknown []string
	coef := make([]float64, len(featureNames))
	for name, w := range m.Weights {
		i, ok := pos[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		coef[i] = w
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeFeatureMismatch,
			fmt.Sprintf("lr: weights reference unknown features %v", unknown))
	}
	m.coef = coef
	return nil
}

// PredictProba 批量预测正类概率，必须先 Bind
func (m *LRModel) PredictProba(_ context.Context, rows [][]float64) ([]float64, error) {
	if m.coef == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFitted, "lr: model is not bound to a feature list")
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.coef) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeFeatureMismatch,
				fmt.Sprintf("lr: row %d has %d features, expected %d", i, len(row), len(m.coef)))
		}
		out[i] = sigmoid(m.Bias + floats.Dot(m.coef, row))
	}
	return finalize(m.Name(), out, len(rows))
}

var (
	_ core.Classifier    = (*LRModel)(nil)
	_ core.FeatureBinder = (*LRModel)(nil)
)
