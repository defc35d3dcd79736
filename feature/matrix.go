package feature

// Matrix 是按行存储的特征矩阵，所有行共享同一块连续内存。
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

func newMatrix(columns []string, n int) *Matrix {
	width := len(columns)
	data := make([]float64, n*width)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = data[i*width : (i+1)*width : (i+1)*width]
	}
	return &Matrix{Columns: columns, Rows: rows}
}

// Len 返回行数
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Rows)
}

// Width 返回列数
func (m *Matrix) Width() int {
	if m == nil {
		return 0
	}
	return len(m.Columns)
}

// Column 返回指定列的副本，列不存在时 ok 为 false。
func (m *Matrix) Column(name string) ([]float64, bool) {
	for j, c := range m.Columns {
		if c == name {
			out := make([]float64, len(m.Rows))
			for i, r := range m.Rows {
				out[i] = r[j]
			}
			return out, true
		}
	}
	return nil, false
}
