package feature

// RawMovie 是原始电影记录，字段可能缺失（指针为 nil / 字符串为空）。
type RawMovie struct {
	ID          int64
	Title       string
	Genres      string // 逗号分隔，如 "Action, Science Fiction"
	Language    string // original_language
	ReleaseDate string // "YYYY-MM-DD"，只取前 4 位
	Runtime     *float64
	VoteAverage *float64
	VoteCount   *float64
	Popularity  *float64
	Overview    *string
	Keywords    *string
}

// Interaction 是一条 (用户, 电影[, 目标]) 记录。
// 训练时 Target 为 rating >= 阈值 的 0/1 标签；推理时为 nil。
type Interaction struct {
	UserID  string
	MovieID int64
	Target  *int
}

// Float 返回 v 的指针，便于构造 RawMovie。
func Float(v float64) *float64 { return &v }

// String 返回 s 的指针，便于构造 RawMovie。
func String(s string) *string { return &s }

// Label 返回 0/1 目标值的指针。
func Label(positive bool) *int {
	v := 0
	if positive {
		v = 1
	}
	return &v
}
