package feature

import (
	"math"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pkg/metrics"
)

func movieValue(t *testing.T, c *Catalog, id int64, col string) float64 {
	t.Helper()
	m, ok := c.Get(id)
	if !ok {
		t.Fatalf("movie %d not in catalog", id)
	}
	for i, name := range c.Layout().MovieColumns() {
		if name == col {
			return m.Features[i]
		}
	}
	t.Fatalf("column %s not in layout", col)
	return 0
}

func TestBuildCatalog(t *testing.T) {
	tr := fitSample()
	c := tr.Catalog()

	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}
	if m, _ := c.Get(1); m.Title != "Alpha" {
		t.Errorf("duplicate id should keep first occurrence, got title %q", m.Title)
	}

	tests := []struct {
		id   int64
		col  string
		want float64
	}{
		{1, "vote_average", 7.5},
		{1, "log_vote_count", math.Log1p(1000)},
		{1, "log_popularity", math.Log1p(50)},
		{1, "movie_year", 2010},
		{1, "movie_age", 16},
		{1, "has_overview", 1},
		{1, "has_keywords", 1},
		{1, "n_keywords", 2},
		{1, "num_genres", 2},
		{1, "overview_len", 22},
		{1, "is_cold", 0},
		{1, "lang_en", 1},
		{1, "genre_Action", 1},
		{1, "genre_Drama", 1},
		{2, "lang_fr", 1},
		{2, "genre_Action", 0},
		// 缺失字段按中位数/0 回填
		{3, "runtime", 110},
		{3, "movie_year", 2004},
		{3, "movie_age", 22},
		{3, "vote_average", 0},
		{3, "log_vote_count", 0},
		{3, "is_cold", 1},
		{3, "has_overview", 0},
		{3, "num_genres", 1},
		{3, "genre_Action", 0},
		{3, "genre_Drama", 0},
		// 不在词表内的语言与类型全部为 0
		{4, "lang_en", 0},
		{4, "lang_fr", 0},
		{4, "genre_Action", 0},
		{4, "num_genres", 0},
		{4, "movie_year", 2020},
		{4, "is_cold", 1},
	}
	for _, tt := range tests {
		if got := movieValue(t, c, tt.id, tt.col); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("movie %d %s = %v, want %v", tt.id, tt.col, got, tt.want)
		}
	}
}

func TestBuildCatalog_Deterministic(t *testing.T) {
	v := FitVocabulary(sampleTrain(), sampleMovies())
	a := BuildCatalog(sampleMovies(), v, 2026)
	b := BuildCatalog(sampleMovies(), v, 2026)
	if a.Len() != b.Len() {
		t.Fatalf("length differs: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if !reflect.DeepEqual(a.At(i), b.At(i)) {
			t.Errorf("row %d differs:\n%+v\n%+v", i, a.At(i), b.At(i))
		}
	}
}

func TestBuildCatalog_ReferenceYear(t *testing.T) {
	tr := fitSample(WithReferenceYear(2030))
	if got := movieValue(t, tr.Catalog(), 1, "movie_age"); got != 20 {
		t.Errorf("movie_age with reference 2030 = %v, want 20", got)
	}
	if tr.ReferenceYear() != 2030 {
		t.Errorf("ReferenceYear = %d", tr.ReferenceYear())
	}
}

func TestCatalog_ByPopularity(t *testing.T) {
	c := fitSample().Catalog()
	var ids []int64
	for _, i := range c.ByPopularity() {
		ids = append(ids, c.At(i).ID)
	}
	// 1(50) > 2(5) > 3(1) > 4(0)
	if want := []int64{1, 2, 3, 4}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ByPopularity = %v, want %v", ids, want)
	}
}

func TestBuildCatalog_SizeGauge(t *testing.T) {
	metrics.CatalogSize.Set(0)
	c := BuildCatalog(sampleMovies(), FitVocabulary(sampleTrain(), sampleMovies()), core.DefaultReferenceYear)
	if got := testutil.ToFloat64(metrics.CatalogSize); got != float64(c.Len()) {
		t.Errorf("catalog gauge = %v, want %d", got, c.Len())
	}
}
