package feature

import (
	"math"
	"sort"

	"github.com/rushteam/movierec/core"
)

const (
	// genreMinShare 类型保留阈值：出现次数 >= max(训练行数 * 0.3%, genreMinCount)
	genreMinShare = 0.003
	genreMinCount = 10
	// maxLanguages 语言词表大小
	maxLanguages = 10
)

// Vocabulary 是 fit 阶段确定的特征词表与缺失值回填参数。
// 一旦 fit 完成，它唯一决定特征向量的宽度与列顺序。
type Vocabulary struct {
	Genres        []string // 保留的类型，升序
	Languages     []string // 按训练频次降序的前 10 种语言
	MedianYear    int
	MedianRuntime int
}

// FitVocabulary 仅基于训练交互（及其对应电影）拟合词表，避免验证/测试集泄漏。
// 训练集为空或没有可解析类型时返回空词表，不报错。
func FitVocabulary(train []Interaction, movies []RawMovie) *Vocabulary {
	byID := indexRawMovies(movies)

	genreCounts := make(map[string]int)
	langCounts := make(map[string]int)
	var langOrder []string
	var years, runtimes []float64

	for _, row := range train {
		m, ok := byID[row.MovieID]
		if !ok {
			continue
		}
		for _, g := range ParseGenres(m.Genres) {
			genreCounts[g]++
		}
		if m.Language != "" {
			if langCounts[m.Language] == 0 {
				langOrder = append(langOrder, m.Language)
			}
			langCounts[m.Language]++
		}
		if y, ok := ExtractYear(m.ReleaseDate); ok {
			years = append(years, float64(y))
		}
		if m.Runtime != nil && !math.IsNaN(*m.Runtime) {
			runtimes = append(runtimes, *m.Runtime)
		}
	}

	minCount := int(float64(len(train)) * genreMinShare)
	if minCount < genreMinCount {
		minCount = genreMinCount
	}
	genres := make([]string, 0, len(genreCounts))
	for g, c := range genreCounts {
		if c >= minCount {
			genres = append(genres, g)
		}
	}
	sort.Strings(genres)

	// 频次相同按首次出现顺序
	sort.SliceStable(langOrder, func(i, j int) bool {
		return langCounts[langOrder[i]] > langCounts[langOrder[j]]
	})
	if len(langOrder) > maxLanguages {
		langOrder = langOrder[:maxLanguages]
	}

	v := &Vocabulary{
		Genres:        genres,
		Languages:     langOrder,
		MedianYear:    core.DefaultMedianYear,
		MedianRuntime: core.DefaultMedianRuntime,
	}
	if y, ok := median(years); ok {
		v.MedianYear = int(y)
	}
	if r, ok := median(runtimes); ok {
		v.MedianRuntime = int(r)
	}
	return v
}

// GenreColumns 返回类型指示列名 genre_{g}
func (v *Vocabulary) GenreColumns() []string {
	cols := make([]string, len(v.Genres))
	for i, g := range v.Genres {
		cols[i] = genrePrefix + g
	}
	return cols
}

// LanguageColumns 返回语言指示列名 lang_{l}
func (v *Vocabulary) LanguageColumns() []string {
	cols := make([]string, len(v.Languages))
	for i, l := range v.Languages {
		cols[i] = langPrefix + l
	}
	return cols
}

// indexRawMovies 按 ID 建索引，重复 ID 以首次出现为准。
func indexRawMovies(movies []RawMovie) map[int64]*RawMovie {
	byID := make(map[int64]*RawMovie, len(movies))
	for i := range movies {
		if _, dup := byID[movies[i].ID]; dup {
			continue
		}
		byID[movies[i].ID] = &movies[i]
	}
	return byID
}
