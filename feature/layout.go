package feature

import (
	"fmt"
	"sort"
	"strings"
)

const (
	genrePrefix = "genre_"
	langPrefix  = "lang_"
	prefPrefix  = "user_pref_"
)

// 电影静态特征的固定前缀列（位置固定，语言与类型指示列紧随其后）。
const (
	colVoteAverage = iota
	colLogVoteCount
	colLogPopularity
	colRuntime
	colMovieYear
	colMovieAge
	colHasOverview
	colHasKeywords
	colNumGenres
	colOverviewLen
	colNKeywords
	colIsCold
	numMovieBaseCols
)

var movieBaseColumns = [numMovieBaseCols]string{
	"vote_average", "log_vote_count", "log_popularity",
	"runtime", "movie_year", "movie_age",
	"has_overview", "has_keywords", "num_genres",
	"overview_len", "n_keywords", "is_cold",
}

// 用户画像标量特征（不含按类型展开的 user_pref_genre_*）。
const (
	userAvgVoteAverage  = "user_avg_vote_average"
	userStdVoteAverage  = "user_std_vote_average"
	userAvgLogPop       = "user_avg_log_popularity"
	userAvgRuntime      = "user_avg_runtime"
	userAvgLogVoteCount = "user_avg_log_vote_count"
	userAvgMovieYear    = "user_avg_movie_year"
	userNumMovies       = "user_num_movies"
	userMaxVoteAverage  = "user_max_vote_average"
	userMinVoteAverage  = "user_min_vote_average"
	userMaxRuntime      = "user_max_runtime"
	userMinRuntime      = "user_min_runtime"
	userMedianRuntime   = "user_median_runtime"
	userMaxLogPop       = "user_max_log_popularity"
	userMinLogPop       = "user_min_log_popularity"
	userPctCold         = "user_pct_cold"
	userNumUniqueGenres = "user_num_unique_genres"
	userGenreEntropy    = "user_genre_entropy"
)

var userScalarColumns = []string{
	userAvgVoteAverage, userStdVoteAverage, userAvgLogPop, userAvgRuntime,
	userAvgLogVoteCount, userAvgMovieYear, userNumMovies,
	userMaxVoteAverage, userMinVoteAverage, userMaxRuntime, userMinRuntime,
	userMedianRuntime, userMaxLogPop, userMinLogPop, userPctCold,
	userNumUniqueGenres, userGenreEntropy,
}

// 交互特征，顺序即输出列顺序。
const (
	ixRuntimeDiff = iota
	ixAbsRuntimeDiff
	ixPopularityDiff
	ixVoteAvgDiff
	ixYearDiff
	ixAbsYearDiff
	ixGenreOverlapCount
	ixGenreOverlapRatio
	ixGenreJaccard
	ixGenreAffinity
	ixGenreCosine
	ixInVoteRange
	ixInRuntimeRange
	ixVoteCountRatio
	ixLangMatch
	numInteractionCols
)

var interactionColumns = [numInteractionCols]string{
	"runtime_diff", "abs_runtime_diff", "popularity_diff", "vote_avg_diff",
	"year_diff", "abs_year_diff", "genre_overlap_count", "genre_overlap_ratio",
	"genre_jaccard", "genre_affinity", "genre_cosine", "in_vote_range",
	"in_runtime_range", "vote_count_ratio", "lang_match",
}

// userOffsets 是用户块内各标量特征的位置，构造 Layout 时一次解析。
type userOffsets struct {
	avgVote, stdVote, avgLogPop, avgRuntime, avgLogVoteCount, avgYear, numMovies int

	maxVote, minVote, maxRuntime, minRuntime, medianRuntime, maxLogPop, minLogPop int

	pctCold, numUniqueGenres, entropy int

	// pref[i] 为第 i 个词表类型的 user_pref_genre_* 位置
	pref []int
}

// Layout 把词表决定的命名特征槽位解析为固定的数值偏移。
// 特征行 = [电影静态特征] + [用户画像特征（按名称升序）] + [交互特征]。
type Layout struct {
	movieCols []string
	userCols  []string
	names     []string

	langStart, genreStart int // 电影块内偏移
	numLangs, numGenres   int
	user                  userOffsets
}

// NewLayout 根据词表构造特征布局。
func NewLayout(v *Vocabulary) *Layout {
	l := &Layout{
		numLangs:  len(v.Languages),
		numGenres: len(v.Genres),
	}

	l.movieCols = make([]string, 0, numMovieBaseCols+l.numLangs+l.numGenres)
	l.movieCols = append(l.movieCols, movieBaseColumns[:]...)
	l.langStart = len(l.movieCols)
	l.movieCols = append(l.movieCols, v.LanguageColumns()...)
	l.genreStart = len(l.movieCols)
	l.movieCols = append(l.movieCols, v.GenreColumns()...)

	l.userCols = make([]string, 0, len(userScalarColumns)+l.numGenres)
	l.userCols = append(l.userCols, userScalarColumns...)
	for _, gc := range v.GenreColumns() {
		l.userCols = append(l.userCols, prefPrefix+gc)
	}
	sort.Strings(l.userCols)

	idx := make(map[string]int, len(l.userCols))
	for i, c := range l.userCols {
		idx[c] = i
	}
	u := &l.user
	u.avgVote = idx[userAvgVoteAverage]
	u.stdVote = idx[userStdVoteAverage]
	u.avgLogPop = idx[userAvgLogPop]
	u.avgRuntime = idx[userAvgRuntime]
	u.avgLogVoteCount = idx[userAvgLogVoteCount]
	u.avgYear = idx[userAvgMovieYear]
	u.numMovies = idx[userNumMovies]
	u.maxVote = idx[userMaxVoteAverage]
	u.minVote = idx[userMinVoteAverage]
	u.maxRuntime = idx[userMaxRuntime]
	u.minRuntime = idx[userMinRuntime]
	u.medianRuntime = idx[userMedianRuntime]
	u.maxLogPop = idx[userMaxLogPop]
	u.minLogPop = idx[userMinLogPop]
	u.pctCold = idx[userPctCold]
	u.numUniqueGenres = idx[userNumUniqueGenres]
	u.entropy = idx[userGenreEntropy]
	u.pref = make([]int, l.numGenres)
	for i, gc := range v.GenreColumns() {
		u.pref[i] = idx[prefPrefix+gc]
	}

	l.names = make([]string, 0, len(l.movieCols)+len(l.userCols)+numInteractionCols)
	l.names = append(l.names, l.movieCols...)
	l.names = append(l.names, l.userCols...)
	l.names = append(l.names, interactionColumns[:]...)
	return l
}

// Names 返回完整特征列名（调用方不得修改）
func (l *Layout) Names() []string { return l.names }

// Width 返回特征行宽度
func (l *Layout) Width() int { return len(l.names) }

// MovieColumns 返回电影静态特征列名
func (l *Layout) MovieColumns() []string { return l.movieCols }

// UserColumns 返回用户画像特征列名（升序）
func (l *Layout) UserColumns() []string { return l.userCols }

// InteractionColumns 返回交互特征列名
func (l *Layout) InteractionColumns() []string { return interactionColumns[:] }

// Index 返回列名在完整特征行中的位置，仅用于诊断与测试。
func (l *Layout) Index(name string) (int, bool) {
	for i, n := range l.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// LanguageIndex 返回语言指示列（如 "lang_en"）在语言词表中的位置。
func (l *Layout) LanguageIndex(column string) (int, bool) {
	if !strings.HasPrefix(column, langPrefix) {
		return -1, false
	}
	for i := 0; i < l.numLangs; i++ {
		if l.movieCols[l.langStart+i] == column {
			return i, true
		}
	}
	return -1, false
}

func (l *Layout) genres(movieRow []float64) []float64 {
	return movieRow[l.genreStart : l.genreStart+l.numGenres]
}

func (l *Layout) langs(movieRow []float64) []float64 {
	return movieRow[l.langStart : l.langStart+l.numLangs]
}

// describeMismatch 给出第一处差异，便于排查。
func describeMismatch(want, got []string) string {
	n := len(want)
	if len(got) < n {
		n = len(got)
	}
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return fmt.Sprintf("column %d: want %q, got %q", i, want[i], got[i])
		}
	}
	return fmt.Sprintf("width: want %d, got %d", len(want), len(got))
}
