package core

// RecommendContext 承载一次推荐请求的上下文，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// RequestID 请求标识（日志/追踪）
	RequestID string

	// SeedIDs 是目录中有效的种子电影 ID（已去重，保持请求顺序）
	SeedIDs []int64

	// SeedGenres 是种子电影触达过的原始类型集合，仅用于候选过滤
	SeedGenres map[string]struct{}

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]Label

	// Params 请求级参数，例如 top_n、candidate_pool、min_year
	Params map[string]any
}

// IsSeed 判断电影是否为种子电影。
func (rctx *RecommendContext) IsSeed(id int64) bool {
	for _, s := range rctx.SeedIDs {
		if s == id {
			return true
		}
	}
	return false
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ParamInt 读取整型参数，YAML/JSON 解码得到的 int / int64 / float64 均兼容。
func (rctx *RecommendContext) ParamInt(key string, defaultVal int) int {
	if rctx == nil || rctx.Params == nil {
		return defaultVal
	}
	switch v := rctx.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultVal
	}
}
