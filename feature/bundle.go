package feature

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/movierec/core"
)

// catalogDocument 是 movie_catalog.json 的结构：表头 + 每部电影一条记录。
type catalogDocument struct {
	BundleID string          `json:"bundle_id"`
	Columns  []string        `json:"columns"`
	Movies   []catalogRecord `json:"movies"`
}

type catalogRecord struct {
	ID        int64     `json:"movie_id"`
	Title     string    `json:"title"`
	GenresRaw string    `json:"genres_raw"`
	Genres    []string  `json:"genres"`
	Language  string    `json:"original_language,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	Features  []float64 `json:"features"`
}

// Encode 序列化为 (元数据, 目录) 两份文档
func (t *Transformer) Encode() (meta []byte, catalog []byte, err error) {
	if t == nil || t.catalog == nil {
		return nil, nil, errNotFitted
	}
	meta, err = json.MarshalIndent(t.Metadata(), "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}

	doc := catalogDocument{
		BundleID: t.bundleID,
		Columns:  t.catalog.layout.movieCols,
		Movies:   make([]catalogRecord, len(t.catalog.movies)),
	}
	for i, m := range t.catalog.movies {
		doc.Movies[i] = catalogRecord{
			ID:        m.ID,
			Title:     m.Title,
			GenresRaw: m.GenresRaw,
			Genres:    m.Genres,
			Language:  m.Language,
			Overview:  m.Overview,
			Features:  m.Features,
		}
	}
	catalog, err = json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode catalog: %w", err)
	}
	return meta, catalog, nil
}

// Decode 由 (元数据, 目录) 两份文档还原转换器。
//
// 拒绝以下不一致：
//   - 目录 bundle_id 与元数据不同，目录表头与词表推导的电影列不同，或 created_at 不是 RFC3339（BUNDLE_MISMATCH）
//   - 元数据 feature_names 与词表推导的特征列不同（FEATURE_MISMATCH）
func Decode(metaData, catalogData []byte, opts ...Option) (*Transformer, error) {
	meta, err := decodeMetadata(metaData)
	if err != nil {
		return nil, err
	}
	var doc catalogDocument
	if err := json.Unmarshal(catalogData, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if doc.BundleID != meta.BundleID {
		return nil, bundleMismatch(fmt.Sprintf("catalog bundle %q does not match metadata bundle %q", doc.BundleID, meta.BundleID))
	}

	t := newTransformer(opts...)
	if meta.ReferenceYear > 0 {
		t.referenceYear = meta.ReferenceYear
	}
	t.vocab = meta.Vocabulary()
	t.bundleID = meta.BundleID
	if meta.CreatedAt != "" {
		if t.createdAt, err = time.Parse(time.RFC3339, meta.CreatedAt); err != nil {
			return nil, bundleMismatch(fmt.Sprintf("invalid created_at %q", meta.CreatedAt))
		}
	}

	layout := NewLayout(t.vocab)
	if !slices.Equal(doc.Columns, layout.movieCols) {
		return nil, bundleMismatch("catalog columns do not match vocabulary (" + describeMismatch(layout.movieCols, doc.Columns) + ")")
	}
	if len(meta.FeatureNames) > 0 {
		if err := checkFeatureNames(layout.names, meta.FeatureNames); err != nil {
			return nil, err
		}
		t.featureNames = slices.Clone(meta.FeatureNames)
	}

	movies := make([]*Movie, 0, len(doc.Movies))
	seen := make(map[int64]struct{}, len(doc.Movies))
	for _, r := range doc.Movies {
		if len(r.Features) != len(layout.movieCols) {
			return nil, bundleMismatch(fmt.Sprintf("movie %d has %d features, want %d", r.ID, len(r.Features), len(layout.movieCols)))
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		movies = append(movies, &Movie{
			ID:        r.ID,
			Title:     r.Title,
			GenresRaw: r.GenresRaw,
			Genres:    r.Genres,
			Language:  r.Language,
			Overview:  r.Overview,
			Features:  r.Features,
		})
	}
	t.catalog = newCatalog(layout, movies)

	t.logger.Info().
		Str("bundle_id", t.bundleID).
		Int("catalog_size", t.catalog.Len()).
		Int("features", layout.Width()).
		Int("reference_year", t.referenceYear).
		Msg("transformer loaded")
	return t, nil
}

func bundleMismatch(msg string) error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeBundleMismatch, "feature: "+msg)
}

// Save 把元数据与目录写入目录 dir（transformer_meta.json + movie_catalog.json）。
func (t *Transformer) Save(dir string) error {
	meta, catalog, err := t.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, catalogFile), catalog); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}
	t.logger.Info().Str("dir", dir).Str("bundle_id", t.bundleID).Msg("transformer saved")
	return nil
}

// Load 从目录 dir 加载转换器
func Load(dir string, opts ...Option) (*Transformer, error) {
	metaData, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, wrapReadError(metadataFile, err)
	}
	catalogData, err := os.ReadFile(filepath.Join(dir, catalogFile))
	if err != nil {
		return nil, wrapReadError(catalogFile, err)
	}
	return Decode(metaData, catalogData, opts...)
}

func wrapReadError(name string, err error) error {
	if os.IsNotExist(err) {
		return core.WrapDomainError(core.ModuleFeature, core.ErrorCodeNotFound, "feature: artifact "+name+" not found", err)
	}
	return fmt.Errorf("read %s: %w", name, err)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// StoreKeys 返回产物在 Store 中的 key：movierec:bundle:{name}:meta / :catalog
func StoreKeys(name string) (metaKey, catalogKey string) {
	prefix := "movierec:bundle:" + name
	return prefix + ":meta", prefix + ":catalog"
}

// SaveToStore 把产物写入任意 core.Store（同一批次写入两个 key）
func (t *Transformer) SaveToStore(ctx context.Context, s core.Store, name string) error {
	meta, catalog, err := t.Encode()
	if err != nil {
		return err
	}
	metaKey, catalogKey := StoreKeys(name)
	if err := s.BatchSet(ctx, map[string][]byte{metaKey: meta, catalogKey: catalog}); err != nil {
		return fmt.Errorf("store %s: %w", s.Name(), err)
	}
	t.logger.Info().Str("store", s.Name()).Str("bundle", name).Str("bundle_id", t.bundleID).Msg("transformer saved")
	return nil
}

// LoadFromStore 从 core.Store 加载产物
func LoadFromStore(ctx context.Context, s core.Store, name string, opts ...Option) (*Transformer, error) {
	metaKey, catalogKey := StoreKeys(name)
	vals, err := s.BatchGet(ctx, []string{metaKey, catalogKey})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", s.Name(), err)
	}
	metaData, ok := vals[metaKey]
	if !ok {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeNotFound, "feature: bundle "+name+" metadata missing", core.ErrStoreNotFound)
	}
	catalogData, ok := vals[catalogKey]
	if !ok {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeNotFound, "feature: bundle "+name+" catalog missing", core.ErrStoreNotFound)
	}
	return Decode(metaData, catalogData, opts...)
}
