package core

import "context"

// Classifier 是排序阶段消费的二分类模型契约：输入特征矩阵，输出每行正类概率。
//
// 约定：
//   - 返回值长度与 rows 一致，顺序与输入行一致
//   - 概率位于 [0, 1]
//   - 加载完成后视为无状态函数，可被并发调用
//
// 实现：
//   - model.LRModel（本地逻辑回归）
//   - model.RPCModel（HTTP JSON 推理服务）
//   - model.ServiceModel（任意 MLService，例如 KServe 上的 XGBoost）
type Classifier interface {
	// Name 返回模型名称（用于 Label/日志/监控）
	Name() string

	// PredictProba 批量预测正类概率
	PredictProba(ctx context.Context, rows [][]float64) ([]float64, error)
}

// FeatureBinder 由需要感知特征列名的分类器实现。
// 引擎在加载时调用一次 Bind，分类器据此校验或解析列位置；
// 列表不一致时应返回 FEATURE_MISMATCH 错误。
type FeatureBinder interface {
	Bind(featureNames []string) error
}
