// Package metrics 定义推荐链路的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests 推荐请求数，按结果分类：ok / empty / invalid / error
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movierec_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CandidatePoolSize 进入打分阶段的候选数量
	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movierec_candidate_pool_size",
			Help:    "Number of candidates sent to the classifier per request",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
		},
	)

	// CandidateSource 候选来源：recall.genre_overlap / recall.popularity / recall.explicit
	CandidateSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_candidate_source_total",
			Help: "Candidate selection strategy used per request",
		},
		[]string{"source"},
	)

	ClassifierErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_classifier_errors_total",
			Help: "Total number of classifier prediction failures",
		},
		[]string{"classifier"},
	)

	// ClassifierBreakerState 分类器熔断器状态：0 闭合 / 1 半开 / 2 打开
	ClassifierBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movierec_classifier_breaker_state",
			Help: "Classifier circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	// NonFiniteFeatures 打分前被置 0 的非有限特征值数量
	NonFiniteFeatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movierec_nonfinite_features_total",
			Help: "Feature values replaced with 0 before scoring",
		},
	)

	FeatureMismatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movierec_feature_mismatch_total",
			Help: "Transforms or loads rejected because feature names diverged",
		},
	)

	// CatalogImputations 构建目录时按字段统计的缺失值填充次数
	CatalogImputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_catalog_imputations_total",
			Help: "Missing catalog fields filled with fitted defaults",
		},
		[]string{"field"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movierec_catalog_movies",
			Help: "Number of movies in the loaded catalog",
		},
	)
)
