package core

import "time"

// 默认参数。参考年份会写入转换器元数据，加载旧产物时以元数据为准。
const (
	DefaultSeedCount     = 5
	DefaultCandidatePool = 500
	DefaultTopN          = 3
	DefaultReferenceYear = 2026
	DefaultMedianYear    = 2000
	DefaultMedianRuntime = 90
)

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultCandidatePool 返回默认的候选池大小
	DefaultCandidatePool() int

	// DefaultTopN 返回默认的返回条数
	DefaultTopN() int

	// DefaultTimeout 返回默认的分类器调用超时
	DefaultTimeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultCandidatePool() int {
	return DefaultCandidatePool
}

func (c *DefaultRecommendConfig) DefaultTopN() int {
	return DefaultTopN
}

func (c *DefaultRecommendConfig) DefaultTimeout() time.Duration {
	return 2 * time.Second
}
