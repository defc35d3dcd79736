package rank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pipeline"
	"github.com/rushteam/movierec/pkg/metrics"
)

// LabelRankModel 记录打分所用的分类器名称
const LabelRankModel = "rank_model"

// ClassifierNode 是使用 core.Classifier 的排序 Node：
//   - 一次批量调用分类器，非有限特征值在打分前置 0
//   - 写入 item.Score（正类概率）与 Label rank_model
//   - 按概率降序排序，概率相同时按电影 ID 升序
type ClassifierNode struct {
	Classifier core.Classifier
}

func (n *ClassifierNode) Name() string        { return "rank.classifier" }
func (n *ClassifierNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ClassifierNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Classifier == nil || len(items) == 0 {
		return items, nil
	}

	valid := make([]*core.Item, 0, len(items))
	rows := make([][]float64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		sanitize(it.Features)
		valid = append(valid, it)
		rows = append(rows, it.Features)
	}

	probs, err := n.Classifier.PredictProba(ctx, rows)
	if err != nil {
		metrics.ClassifierErrors.WithLabelValues(n.Classifier.Name()).Inc()
		return nil, err
	}
	if len(probs) != len(valid) {
		metrics.ClassifierErrors.WithLabelValues(n.Classifier.Name()).Inc()
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
			fmt.Sprintf("%s returned %d probabilities for %d candidates", n.Classifier.Name(), len(probs), len(valid)))
	}

	lbl := core.Label{Value: n.Classifier.Name(), Source: "rank"}
	for i, it := range valid {
		it.Score = probs[i]
		it.PutLabel(LabelRankModel, lbl)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Score != valid[j].Score {
			return valid[i].Score > valid[j].Score
		}
		return valid[i].ID < valid[j].ID
	})
	return valid, nil
}

// sanitize 原地把 NaN/Inf 置 0
func sanitize(row []float64) {
	replaced := 0
	for j, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			row[j] = 0
			replaced++
		}
	}
	if replaced > 0 {
		metrics.NonFiniteFeatures.Add(float64(replaced))
	}
}
