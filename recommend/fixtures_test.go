package recommend

import (
	"path/filepath"
	"testing"

	"github.com/rushteam/movierec/feature"
	"github.com/rushteam/movierec/model"
)

var seedIDs = []int64{27205, 603, 496243, 550, 335984}

func movie(id int64, title, genres, lang, date string, runtime, vote, pop float64) feature.RawMovie {
	return feature.RawMovie{
		ID: id, Title: title, Genres: genres, Language: lang, ReleaseDate: date,
		Runtime: feature.Float(runtime), VoteAverage: feature.Float(vote),
		VoteCount: feature.Float(pop * 100), Popularity: feature.Float(pop),
		Overview: feature.String(title + " overview"),
	}
}

// testMovies 五部种子 + 九部候选，900001/900002 没有任何类型数据
func testMovies() []feature.RawMovie {
	return []feature.RawMovie{
		movie(27205, "Inception", "Action, Science Fiction, Adventure", "en", "2010-07-15", 148, 8.4, 80),
		movie(603, "The Matrix", "Action, Science Fiction", "en", "1999-03-30", 136, 8.2, 70),
		movie(496243, "Parasite", "Comedy, Thriller, Drama", "ko", "2019-05-30", 133, 8.5, 60),
		movie(550, "Fight Club", "Drama", "en", "1999-10-15", 139, 8.4, 65),
		movie(335984, "Blade Runner 2049", "Science Fiction, Drama", "en", "2017-10-04", 164, 7.5, 50),
		movie(157336, "Interstellar", "Adventure, Drama, Science Fiction", "en", "2014-11-05", 169, 8.4, 90),
		movie(155, "The Dark Knight", "Drama, Action, Crime, Thriller", "en", "2008-07-16", 152, 8.5, 85),
		movie(680, "Pulp Fiction", "Thriller, Crime", "en", "1994-09-10", 154, 8.5, 60),
		movie(13, "Forrest Gump", "Comedy, Drama, Romance", "en", "1994-06-23", 142, 8.5, 55),
		movie(129, "Spirited Away", "Animation, Family, Fantasy", "ja", "2001-07-20", 125, 8.5, 45),
		movie(424, "Schindler's List", "Drama, History, War", "en", "1993-12-15", 195, 8.6, 40),
		movie(11, "Star Wars", "Adventure, Action, Science Fiction", "en", "1977-05-25", 121, 8.2, 75),
		{ID: 900001, Title: "Untitled Short", Language: "es"},
		{ID: 900002, Title: "Quiet Film", Language: "en", Popularity: feature.Float(1)},
	}
}

func testTrain() []feature.Interaction {
	var rows []feature.Interaction
	for _, users := range []string{"u1", "u2", "u3", "u4"} {
		for i, m := range testMovies() {
			rows = append(rows, feature.Interaction{UserID: users, MovieID: m.ID, Target: feature.Label(i%2 == 0)})
		}
	}
	return rows
}

func testTransformer() *feature.Transformer {
	return feature.Fit(testTrain(), testMovies())
}

func testModel() *model.LRModel {
	return &model.LRModel{
		Bias: -3,
		Weights: map[string]float64{
			"genre_overlap_count": 0.5,
			"vote_average":        0.2,
			"log_popularity":      0.1,
		},
	}
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(testTransformer(), testModel(), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// writeArtifacts 把转换器与 LR 模型写入临时产物目录
func writeArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := testTransformer().Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := testModel().Save(filepath.Join(dir, "model.json")); err != nil {
		t.Fatalf("save model: %v", err)
	}
	return dir
}
