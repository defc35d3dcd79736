package dataset

import (
	"math/rand/v2"

	"github.com/rushteam/movierec/feature"
)

// DefaultRatingThreshold 评分 >= 该值视为正样本
const DefaultRatingThreshold = 4.0

// DefaultNegativesPerUser 每个评分用户采样的合成负样本数
const DefaultNegativesPerUser = 5

// Sample 是一行带标签的训练交互；Synthetic 标记负采样生成的行
type Sample struct {
	feature.Interaction
	Synthetic bool
}

// Interactions 取出交互部分
func Interactions(samples []Sample) []feature.Interaction {
	out := make([]feature.Interaction, len(samples))
	for i, s := range samples {
		out[i] = s.Interaction
	}
	return out
}

// Rated 返回带评分的 rated 行，target = rating >= threshold
func (d *Dataset) Rated(threshold float64) []Sample {
	out := make([]Sample, 0, len(d.Rows))
	for _, r := range d.Rows {
		if r.Type != TypeRated || r.Rating == nil {
			continue
		}
		out = append(out, Sample{Interaction: feature.Interaction{
			UserID:  r.UserID,
			MovieID: r.MovieID,
			Target:  feature.Label(*r.Rating >= threshold),
		}})
	}
	return out
}

// Watched 返回 watched 行（无标签），用于构建用户画像
func (d *Dataset) Watched() []feature.Interaction {
	out := make([]feature.Interaction, 0)
	for _, r := range d.Rows {
		if r.Type == TypeWatched {
			out = append(out, feature.Interaction{UserID: r.UserID, MovieID: r.MovieID})
		}
	}
	return out
}

// NegativeSamples 为 rated 中出现的每个用户（首次出现顺序）从全量电影中无放回抽取 perUser*3 部候选，
// 去掉该用户交互过的电影后保留前 perUser 部作为 target=0 的合成样本。
// 相同 seed 产生相同结果。
func (d *Dataset) NegativeSamples(rated []Sample, perUser int, seed uint64) []Sample {
	if perUser <= 0 {
		return nil
	}
	seenBy := make(map[string]map[int64]struct{})
	for _, r := range d.Rows {
		s, ok := seenBy[r.UserID]
		if !ok {
			s = make(map[int64]struct{})
			seenBy[r.UserID] = s
		}
		s[r.MovieID] = struct{}{}
	}

	all := d.MovieIDs()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	draw := min(perUser*3, len(all))

	var out []Sample
	users := make(map[string]struct{})
	pool := make([]int64, len(all))
	for _, r := range rated {
		if _, done := users[r.UserID]; done {
			continue
		}
		users[r.UserID] = struct{}{}

		// 部分 Fisher-Yates，只打乱前 draw 个位置
		copy(pool, all)
		for i := 0; i < draw; i++ {
			j := i + rng.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
		chosen := 0
		for _, id := range pool[:draw] {
			if chosen == perUser {
				break
			}
			if _, seen := seenBy[r.UserID][id]; seen {
				continue
			}
			out = append(out, Sample{
				Interaction: feature.Interaction{UserID: r.UserID, MovieID: id, Target: feature.Label(false)},
				Synthetic:   true,
			})
			chosen++
		}
	}
	return out
}

// Split 是分层切分的结果
type Split struct {
	Train, Val, Test []Sample
}

// StratifiedSplit 按 target 分层，先切出 testFrac 作为测试集，再从剩余部分切出 valFrac（相对全量）作为验证集。
// 每个分层内部先打乱；相同 seed 产生相同结果。
func StratifiedSplit(samples []Sample, testFrac, valFrac float64, seed uint64) Split {
	rng := rand.New(rand.NewPCG(seed, seed+1))

	strata := make(map[int][]Sample)
	var keys []int
	for _, s := range samples {
		k := -1
		if s.Target != nil {
			k = *s.Target
		}
		if _, ok := strata[k]; !ok {
			keys = append(keys, k)
		}
		strata[k] = append(strata[k], s)
	}

	var split Split
	for _, k := range keys {
		group := strata[k]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		n := len(group)
		nTest := int(float64(n)*testFrac + 0.5)
		nVal := int(float64(n)*valFrac + 0.5)
		if nTest+nVal > n {
			nVal = n - nTest
		}
		split.Test = append(split.Test, group[:nTest]...)
		split.Val = append(split.Val, group[nTest:nTest+nVal]...)
		split.Train = append(split.Train, group[nTest+nVal:]...)
	}
	return split
}

// ProfileSource 合并 watched 与训练集中的真实评分行，按 (用户, 电影) 去重，作为画像输入
func ProfileSource(watched []feature.Interaction, train []Sample) []feature.Interaction {
	type key struct {
		user  string
		movie int64
	}
	seen := make(map[key]struct{}, len(watched)+len(train))
	out := make([]feature.Interaction, 0, len(watched)+len(train))
	add := func(in feature.Interaction) {
		k := key{in.UserID, in.MovieID}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		out = append(out, feature.Interaction{UserID: in.UserID, MovieID: in.MovieID})
	}
	for _, w := range watched {
		add(w)
	}
	for _, s := range train {
		if !s.Synthetic {
			add(s.Interaction)
		}
	}
	return out
}

// RealOnly 过滤掉合成样本
func RealOnly(samples []Sample) []feature.Interaction {
	out := make([]feature.Interaction, 0, len(samples))
	for _, s := range samples {
		if !s.Synthetic {
			out = append(out, s.Interaction)
		}
	}
	return out
}
