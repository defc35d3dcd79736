// Package movierec 是电影推荐的特征转换与推理工具包。
//
// 设计要点：
// - 训练/推理对称：同一个 feature.Transformer 同时产出训练矩阵与推理候选矩阵，特征列顺序在 fit 时固定
// - Pipeline-first: 候选经 Node 串联处理（Filter → Rank → ReRank）
// - 产物自洽：词表、目录与模型通过 bundle_id 绑定，加载时校验
package movierec

import (
	"github.com/rushteam/movierec/pipeline"
	"github.com/rushteam/movierec/recommend"
)

// 轻量 facade：便于用户直接 import "movierec" 使用核心抽象。
type (
	Pipeline         = pipeline.Pipeline
	Node             = pipeline.Node
	Kind             = pipeline.Kind
	Engine           = recommend.Engine
	RecommendRequest = recommend.RecommendRequest
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewEngine 见 recommend.NewEngine
var NewEngine = recommend.NewEngine
