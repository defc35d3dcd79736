package feature

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const entropyEpsilon = 1e-10

// Profile 是一组电影的口味统计摘要。
// Features 与 Layout.UserColumns 对齐；TopLanguage 与 Genres 为辅助字段，不进入模型。
type Profile struct {
	Features []float64

	// TopLanguage 是主导语言指示列名（如 "lang_en"），语言词表为空时为 ""
	TopLanguage string
	// Genres 是触达过的原始类型集合，只用于候选过滤
	Genres map[string]struct{}

	layout  *Layout
	langIdx int
}

// Get 按列名读取画像特征
func (p *Profile) Get(name string) (float64, bool) {
	for i, c := range p.layout.userCols {
		if c == name {
			return p.Features[i], true
		}
	}
	return 0, false
}

// GenreList 返回已排序的类型集合
func (p *Profile) GenreList() []string {
	return sortedKeys(p.Genres)
}

// PrefSum 返回类型偏好占比之和（有词表类型时为 1，否则为 0）
func (p *Profile) PrefSum() float64 {
	s := 0.0
	for _, off := range p.layout.user.pref {
		s += p.Features[off]
	}
	return s
}

// AggregateProfile 由电影集合计算画像，movies 需来自同一目录。
// movies 为空时返回全 0 画像（没有类型、没有主语言），不会 panic。
func AggregateProfile(layout *Layout, movies []*Movie) *Profile {
	n := len(movies)
	u := &layout.user
	out := make([]float64, len(layout.userCols))
	if n == 0 {
		return &Profile{Features: out, Genres: map[string]struct{}{}, layout: layout, langIdx: -1}
	}

	vote := make([]float64, n)
	logPop := make([]float64, n)
	runtime := make([]float64, n)
	logVC := make([]float64, n)
	year := make([]float64, n)
	cold := make([]float64, n)
	genreSums := make([]float64, layout.numGenres)
	langSums := make([]float64, layout.numLangs)
	genreSet := make(map[string]struct{})

	for i, m := range movies {
		vote[i] = m.VoteAverage()
		logPop[i] = m.LogPopularity()
		runtime[i] = m.Runtime()
		logVC[i] = m.LogVoteCount()
		year[i] = m.Year()
		cold[i] = m.Features[colIsCold]
		floats.Add(genreSums, layout.genres(m.Features))
		floats.Add(langSums, layout.langs(m.Features))
		for _, g := range m.Genres {
			genreSet[g] = struct{}{}
		}
	}

	out[u.avgVote] = stat.Mean(vote, nil)
	if n > 1 {
		out[u.stdVote] = stat.StdDev(vote, nil)
	}
	out[u.avgLogPop] = stat.Mean(logPop, nil)
	out[u.avgRuntime] = stat.Mean(runtime, nil)
	out[u.avgLogVoteCount] = stat.Mean(logVC, nil)
	out[u.avgYear] = stat.Mean(year, nil)
	out[u.numMovies] = float64(n)
	out[u.maxVote] = floats.Max(vote)
	out[u.minVote] = floats.Min(vote)
	out[u.maxRuntime] = floats.Max(runtime)
	out[u.minRuntime] = floats.Min(runtime)
	out[u.medianRuntime], _ = median(runtime)
	out[u.maxLogPop] = floats.Max(logPop)
	out[u.minLogPop] = floats.Min(logPop)
	out[u.pctCold] = stat.Mean(cold, nil)

	// 无任何词表类型时偏好全为 0
	if total := floats.Sum(genreSums); total > 0 {
		floats.Scale(1/total, genreSums)
	}
	entropy := 0.0
	for i, p := range genreSums {
		out[u.pref[i]] = p
		if p > 0 {
			entropy -= p * math.Log2(p+entropyEpsilon)
		}
	}
	out[u.entropy] = entropy
	out[u.numUniqueGenres] = float64(len(genreSet))

	p := &Profile{
		Features: out,
		Genres:   genreSet,
		layout:   layout,
		langIdx:  -1,
	}
	if layout.numLangs > 0 {
		// 并列取词表中靠前者；全为 0 时回退到第一种语言
		p.langIdx = 0
		if floats.Max(langSums) > 0 {
			p.langIdx = floats.MaxIdx(langSums)
		}
		p.TopLanguage = layout.movieCols[layout.langStart+p.langIdx]
	}
	return p
}
