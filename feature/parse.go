package feature

import (
	"strconv"
	"strings"
)

// ParseGenres 按逗号切分类型字符串，去除首尾空白并丢弃空项。
// 重复项保留，num_genres 按原始列表长度计数。
func ParseGenres(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// ExtractYear 取日期字符串前 4 个字符解析为年份，失败时 ok 为 false。
func ExtractYear(date string) (year int, ok bool) {
	if len(date) > 4 {
		date = date[:4]
	}
	y, err := strconv.Atoi(strings.TrimSpace(date))
	if err != nil {
		return 0, false
	}
	return y, true
}

func countKeywords(raw string) int {
	n := 0
	for _, k := range strings.Split(raw, ",") {
		if strings.TrimSpace(k) != "" {
			n++
		}
	}
	return n
}
