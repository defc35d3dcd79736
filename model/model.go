// Package model 提供 core.Classifier 的实现：本地逻辑回归、HTTP JSON 推理服务、任意 MLService。
//
// 所有实现遵守同一约定：返回概率与输入行一一对应，越界值被截断到 [0, 1]，
// 返回数量与行数不一致时报错。
package model

import (
	"fmt"
	"math"

	"github.com/rushteam/movierec/core"
)

// clampProba 把概率截断到 [0, 1]，非有限值视为 0
func clampProba(p float64) float64 {
	switch {
	case math.IsNaN(p), math.IsInf(p, 0):
		return 0
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// finalize 校验数量后原地截断
func finalize(name string, probs []float64, rows int) ([]float64, error) {
	if len(probs) != rows {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
			fmt.Sprintf("%s: response count mismatch: expected %d, got %d", name, rows, len(probs)))
	}
	for i, p := range probs {
		probs[i] = clampProba(p)
	}
	return probs, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
