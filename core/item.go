package core

// Item 是推荐链路中的统一承载结构：候选电影的特征行、分数、元信息、标签。
// Features 与转换器的特征列一一按位置对齐；Score 为分类器给出的正类概率。
type Item struct {
	ID       int64
	Score    float64
	Features []float64
	Meta     map[string]any
	Labels   map[string]Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString 读取字符串类型的 Meta 字段，不存在时返回空串。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	s, _ := it.Meta[key].(string)
	return s
}
