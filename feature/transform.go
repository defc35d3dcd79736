package feature

import (
	"fmt"
	"math"
	"slices"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pkg/metrics"
)

// Transform 把 (用户, 电影) 行与用户画像拼装为特征矩阵，训练与推理共用。
//
// 处理规则：
//   - 用户不在 profiles 中的行被丢弃（调用方应保证用户存在）
//   - 电影不在目录中的行被丢弃
//   - 无存活行时返回空矩阵与空元数据，不报错
//   - 剩余缺失/非有限值填 0
//
// 返回的元数据与矩阵行一一对应，保持输入顺序。
// 第一次成功的 Transform 固定特征名列表；之后列表不一致的调用返回 FEATURE_MISMATCH。
func (t *Transformer) Transform(rows []Interaction, profiles map[string]*Profile) (*Matrix, []Interaction, error) {
	if t == nil || t.catalog == nil {
		return nil, nil, errNotFitted
	}
	layout := t.catalog.layout

	type pair struct {
		movie   *Movie
		profile *Profile
	}
	pairs := make([]pair, 0, len(rows))
	meta := make([]Interaction, 0, len(rows))
	for _, r := range rows {
		p, ok := profiles[r.UserID]
		if !ok || p == nil {
			continue
		}
		m, ok := t.catalog.Get(r.MovieID)
		if !ok {
			continue
		}
		if p.layout != layout {
			metrics.FeatureMismatches.Inc()
			return nil, nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeFeatureMismatch,
				fmt.Sprintf("feature: profile for user %q was built by a different transformer", r.UserID))
		}
		pairs = append(pairs, pair{movie: m, profile: p})
		meta = append(meta, r)
	}
	if len(pairs) == 0 {
		return &Matrix{}, []Interaction{}, nil
	}

	if err := t.captureFeatureNames(layout.names); err != nil {
		return nil, nil, err
	}

	nm, nu := len(layout.movieCols), len(layout.userCols)
	x := newMatrix(layout.names, len(pairs))
	pref := make([]float64, layout.numGenres)
	for i, pr := range pairs {
		row := x.Rows[i]
		copy(row[:nm], pr.movie.Features)
		copy(row[nm:nm+nu], pr.profile.Features)
		computeInteractions(layout, pr.movie.Features, pr.profile.Features, pr.profile.langIdx, pref, row[nm+nu:])
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[j] = 0
			}
		}
	}
	return x, meta, nil
}

// captureFeatureNames 在首次成功转换时记录特征名；之后必须完全一致。
func (t *Transformer) captureFeatureNames(names []string) error {
	t.mu.RLock()
	captured := t.featureNames
	t.mu.RUnlock()
	if captured == nil {
		t.mu.Lock()
		if t.featureNames == nil {
			t.featureNames = slices.Clone(names)
		}
		captured = t.featureNames
		t.mu.Unlock()
	}
	return checkFeatureNames(captured, names)
}

func checkFeatureNames(want, got []string) error {
	if slices.Equal(want, got) {
		return nil
	}
	metrics.FeatureMismatches.Inc()
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeFeatureMismatch,
		"feature: feature names diverged from training ("+describeMismatch(want, got)+")")
}
