package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/movierec/feature"
)

// WriteMatrixCSV 写出 user_id,movie_id,target + 特征列。target 缺失时为空。
func WriteMatrixCSV(w io.Writer, x *feature.Matrix, meta []feature.Interaction) error {
	cw := csv.NewWriter(w)
	header := append([]string{"user_id", "movie_id", "target"}, x.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i, row := range x.Rows {
		m := meta[i]
		rec[0] = m.UserID
		rec[1] = strconv.FormatInt(m.MovieID, 10)
		rec[2] = ""
		if m.Target != nil {
			rec[2] = strconv.Itoa(*m.Target)
		}
		for j, v := range row {
			rec[3+j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatrixFile 写出矩阵 CSV 文件
func WriteMatrixFile(path string, x *feature.Matrix, meta []feature.Interaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMatrixCSV(f, x, meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFeatureNames 写出特征名 JSON 数组，供外部训练脚本对齐列顺序
func WriteFeatureNames(path string, names []string) error {
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
