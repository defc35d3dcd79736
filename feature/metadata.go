package feature

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	metadataFile = "transformer_meta.json"
	catalogFile  = "movie_catalog.json"
)

// TransformerMetadata 转换器元数据，对应 transformer_meta.json。
// 与目录文件、模型文件作为一组产物共同发布。
type TransformerMetadata struct {
	// GenreColumns 类型指示列名（genre_{g}，按顺序）
	GenreColumns []string `json:"genre_columns"`
	// TopLanguages 语言词表（按训练频次降序）
	TopLanguages []string `json:"top_languages"`
	// MedianYear 缺失年份回填值
	MedianYear int `json:"median_year"`
	// MedianRuntime 缺失时长回填值
	MedianRuntime int `json:"median_runtime"`
	// ReferenceYear 电影年龄参考年份，缺省视为 2026
	ReferenceYear int `json:"reference_year,omitempty"`
	// FeatureNames 规范特征列名（按顺序）
	FeatureNames []string `json:"feature_names"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// BundleID 产物标识，目录文件必须携带相同的值
	BundleID string `json:"bundle_id"`
	// CatalogSize 目录电影数
	CatalogSize int `json:"catalog_size"`
	// CreatedAt 创建时间（RFC3339）
	CreatedAt string `json:"created_at,omitempty"`
}

// Vocabulary 从元数据还原词表
func (m *TransformerMetadata) Vocabulary() *Vocabulary {
	genres := make([]string, len(m.GenreColumns))
	for i, c := range m.GenreColumns {
		genres[i] = strings.TrimPrefix(c, genrePrefix)
	}
	return &Vocabulary{
		Genres:        genres,
		Languages:     append([]string(nil), m.TopLanguages...),
		MedianYear:    m.MedianYear,
		MedianRuntime: m.MedianRuntime,
	}
}

// LoadMetadata 从文件加载转换器元数据
func LoadMetadata(path string) (*TransformerMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return decodeMetadata(data)
}

func decodeMetadata(data []byte) (*TransformerMetadata, error) {
	var meta TransformerMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

// Metadata 生成当前转换器的元数据
func (t *Transformer) Metadata() *TransformerMetadata {
	names := t.FeatureNames()
	meta := &TransformerMetadata{
		GenreColumns:  t.vocab.GenreColumns(),
		TopLanguages:  append([]string{}, t.vocab.Languages...),
		MedianYear:    t.vocab.MedianYear,
		MedianRuntime: t.vocab.MedianRuntime,
		ReferenceYear: t.referenceYear,
		FeatureNames:  names,
		FeatureCount:  len(names),
		BundleID:      t.bundleID,
		CatalogSize:   t.catalog.Len(),
	}
	if !t.createdAt.IsZero() {
		meta.CreatedAt = t.createdAt.Format(time.RFC3339)
	}
	return meta
}
