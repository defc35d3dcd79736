package feature

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	cosineEpsilon    = 1e-10
	voteRatioEpsilon = 1e-6
)

// computeInteractions 为一对 (电影静态行, 用户画像行) 写出交互特征到 out（长度 numInteractionCols）。
// pref 为调用方提供的缓冲区，长度等于词表类型数。
func computeInteractions(l *Layout, movie, user []float64, langIdx int, pref, out []float64) {
	u := &l.user

	runtimeDiff := movie[colRuntime] - user[u.avgRuntime]
	yearDiff := movie[colMovieYear] - user[u.avgYear]
	out[ixRuntimeDiff] = runtimeDiff
	out[ixAbsRuntimeDiff] = math.Abs(runtimeDiff)
	out[ixPopularityDiff] = movie[colLogPopularity] - user[u.avgLogPop]
	out[ixVoteAvgDiff] = movie[colVoteAverage] - user[u.avgVote]
	out[ixYearDiff] = yearDiff
	out[ixAbsYearDiff] = math.Abs(yearDiff)

	genres := l.genres(movie)
	for i, off := range u.pref {
		pref[i] = user[off]
	}

	var overlap, union float64
	for i, g := range genres {
		present := pref[i] > 0
		if present {
			overlap += g
		}
		if g > 0 || present {
			union++
		}
	}
	movieGenres := floats.Sum(genres)
	out[ixGenreOverlapCount] = overlap
	out[ixGenreOverlapRatio] = 0
	if movieGenres > 0 {
		out[ixGenreOverlapRatio] = overlap / movieGenres
	}
	out[ixGenreJaccard] = 0
	if union > 0 {
		out[ixGenreJaccard] = overlap / union
	}

	affinity := floats.Dot(genres, pref)
	normMovie := math.Sqrt(floats.Dot(genres, genres) + cosineEpsilon)
	normUser := math.Sqrt(floats.Dot(pref, pref) + cosineEpsilon)
	out[ixGenreAffinity] = affinity
	out[ixGenreCosine] = affinity / (normMovie*normUser + cosineEpsilon)

	out[ixInVoteRange] = boolFloat(movie[colVoteAverage] >= user[u.minVote] && movie[colVoteAverage] <= user[u.maxVote])
	out[ixInRuntimeRange] = boolFloat(movie[colRuntime] >= user[u.minRuntime] && movie[colRuntime] <= user[u.maxRuntime])
	out[ixVoteCountRatio] = movie[colLogVoteCount] / (user[u.avgLogVoteCount] + voteRatioEpsilon)

	out[ixLangMatch] = 0
	if langIdx >= 0 && langIdx < l.numLangs {
		out[ixLangMatch] = movie[l.langStart+langIdx]
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
