// Package dataset 读取原始交互日志 CSV，并生成训练所需的交互表（评分标签、负采样、分层切分）。
//
// CSV 每行为一次 (用户, 电影) 交互，同时携带电影属性：
//
//	user_id,movie_id,interaction_type,user_rating,title,genres,original_language,
//	release_date,runtime,vote_average,vote_count,popularity,overview,keywords
//
// 只有 user_id 与 movie_id 为必需列，其余列缺失或为空时按缺失值处理。
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/feature"
)

// 交互类型
const (
	TypeRated   = "rated"
	TypeWatched = "watched"
)

// Row 是一行原始交互
type Row struct {
	UserID  string
	MovieID int64
	Type    string
	Rating  *float64
}

// Dataset 是解析后的交互日志：交互行 + 按首次出现去重的电影属性
type Dataset struct {
	Rows   []Row
	Movies []feature.RawMovie
}

// MovieIDs 返回出现过的电影 ID（首次出现顺序）
func (d *Dataset) MovieIDs() []int64 {
	ids := make([]int64, len(d.Movies))
	for i, m := range d.Movies {
		ids[i] = m.ID
	}
	return ids
}

// LoadCSV 读取 CSV 文件
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeNotFound, "dataset: "+path+" not found", err)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV 从 reader 解析带表头的 CSV
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset: missing header", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"user_id", "movie_id"} {
		if _, ok := cols[required]; !ok {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				"dataset: missing required column "+required)
		}
	}

	ds := &Dataset{}
	seen := make(map[int64]struct{})
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		movieID, err := strconv.ParseInt(get("movie_id"), 10, 64)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dataset: line %d: invalid movie_id %q", line, get("movie_id")), err)
		}
		ds.Rows = append(ds.Rows, Row{
			UserID:  get("user_id"),
			MovieID: movieID,
			Type:    strings.ToLower(get("interaction_type")),
			Rating:  parseFloat(get("user_rating")),
		})

		if _, dup := seen[movieID]; dup {
			continue
		}
		seen[movieID] = struct{}{}
		ds.Movies = append(ds.Movies, feature.RawMovie{
			ID:          movieID,
			Title:       get("title"),
			Genres:      get("genres"),
			Language:    get("original_language"),
			ReleaseDate: get("release_date"),
			Runtime:     parseFloat(get("runtime")),
			VoteAverage: parseFloat(get("vote_average")),
			VoteCount:   parseFloat(get("vote_count")),
			Popularity:  parseFloat(get("popularity")),
			Overview:    optional(get("overview")),
			Keywords:    optional(get("keywords")),
		})
	}
	return ds, nil
}

// parseFloat 空串与无法解析的值视为缺失
func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
