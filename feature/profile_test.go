package feature

import (
	"math"
	"testing"

	"github.com/rushteam/movierec/core"
)

func profileValue(t *testing.T, p *Profile, name string) float64 {
	t.Helper()
	v, ok := p.Get(name)
	if !ok {
		t.Fatalf("profile has no feature %s", name)
	}
	return v
}

func TestProfileFor_SingleMovie(t *testing.T) {
	tr := fitSample()
	p, valid, err := tr.ProfileFor([]int64{1})
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if len(valid) != 1 {
		t.Fatalf("valid = %v", valid)
	}
	if got := profileValue(t, p, "user_std_vote_average"); got != 0 || math.IsNaN(got) {
		t.Errorf("std of single movie = %v, want exactly 0", got)
	}
	if got := p.PrefSum(); math.Abs(got-1) > 1e-9 {
		t.Errorf("pref sum = %v, want 1", got)
	}
	// 两个等权类型：熵约为 1 bit
	if got := profileValue(t, p, "user_genre_entropy"); math.Abs(got-1) > 1e-6 {
		t.Errorf("entropy = %v, want ~1", got)
	}
	if p.TopLanguage != "lang_en" {
		t.Errorf("TopLanguage = %q, want lang_en", p.TopLanguage)
	}
	if got := profileValue(t, p, "user_num_unique_genres"); got != 2 {
		t.Errorf("num unique genres = %v", got)
	}
}

func TestProfileFor_Aggregates(t *testing.T) {
	tr := fitSample()
	p, _, err := tr.ProfileFor([]int64{1, 2, 2, 999})
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	tests := []struct {
		name string
		want float64
	}{
		{"user_num_movies", 2},
		{"user_avg_vote_average", 6.75},
		{"user_std_vote_average", 1.5 / math.Sqrt2},
		{"user_max_vote_average", 7.5},
		{"user_min_vote_average", 6},
		{"user_avg_runtime", 110},
		{"user_median_runtime", 110},
		{"user_max_runtime", 120},
		{"user_min_runtime", 100},
		{"user_avg_movie_year", 2004.5},
		{"user_pct_cold", 0},
		// Action 1 / Drama 2，总计 3
		{"user_pref_genre_Action", 1.0 / 3},
		{"user_pref_genre_Drama", 2.0 / 3},
	}
	for _, tt := range tests {
		if got := profileValue(t, p, tt.name); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
	// en 与 fr 各 1 部，并列取词表靠前者
	if p.TopLanguage != "lang_en" {
		t.Errorf("TopLanguage = %q, want lang_en", p.TopLanguage)
	}
}

func TestProfileFor_NoVocabularyGenres(t *testing.T) {
	tr := fitSample()
	p, _, err := tr.ProfileFor([]int64{4})
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if got := p.PrefSum(); got != 0 {
		t.Errorf("pref sum = %v, want 0", got)
	}
	if got := profileValue(t, p, "user_genre_entropy"); got != 0 {
		t.Errorf("entropy = %v, want 0", got)
	}
	if len(p.Genres) != 0 {
		t.Errorf("genre set = %v, want empty", p.GenreList())
	}
	// 没有任何词表语言时回退到第一种语言
	if p.TopLanguage != "lang_en" {
		t.Errorf("TopLanguage = %q, want lang_en", p.TopLanguage)
	}
	if got := profileValue(t, p, "user_pct_cold"); got != 1 {
		t.Errorf("pct cold = %v", got)
	}
}

func TestProfileFor_NoValidSeed(t *testing.T) {
	tr := fitSample()
	_, _, err := tr.ProfileFor([]int64{998, 999})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestProfile_EmptyLanguageVocabulary(t *testing.T) {
	movies := []RawMovie{{ID: 1, Genres: "Drama", Runtime: Float(90)}}
	tr := Fit(nil, movies)
	p, _, err := tr.ProfileFor([]int64{1})
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if p.TopLanguage != "" {
		t.Errorf("TopLanguage = %q, want empty", p.TopLanguage)
	}
	x, _, err := tr.Transform([]Interaction{{UserID: "u", MovieID: 1}}, map[string]*Profile{"u": p})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	lm, _ := x.Column("lang_match")
	if lm[0] != 0 {
		t.Errorf("lang_match = %v, want 0", lm[0])
	}
}

func TestAggregateProfile_Empty(t *testing.T) {
	layout := fitSample().Layout()
	p := AggregateProfile(layout, nil)
	if len(p.Features) != len(layout.UserColumns()) {
		t.Fatalf("features = %d, want %d", len(p.Features), len(layout.UserColumns()))
	}
	for i, v := range p.Features {
		if v != 0 {
			t.Errorf("%s = %v, want 0", layout.UserColumns()[i], v)
		}
	}
	if len(p.Genres) != 0 || p.TopLanguage != "" || p.PrefSum() != 0 {
		t.Errorf("empty profile = %+v", p)
	}
}

func TestBuildUserProfiles(t *testing.T) {
	tr := fitSample()
	rows := append(sampleTrain(),
		Interaction{UserID: "ghost", MovieID: 12345},
		Interaction{UserID: "u9", MovieID: 3},
	)
	profiles, err := tr.BuildUserProfiles(t.Context(), rows)
	if err != nil {
		t.Fatalf("BuildUserProfiles: %v", err)
	}
	if len(profiles) != 4 {
		t.Fatalf("profiles = %d, want 4 (u0,u1,u2,u9)", len(profiles))
	}
	if _, ok := profiles["ghost"]; ok {
		t.Errorf("user without catalog movies should be skipped")
	}
	// u9 重复观看电影 3 只计一次
	if got := profileValue(t, profiles["u9"], "user_num_movies"); got != 1 {
		t.Errorf("u9 num movies = %v, want 1", got)
	}
	if got := profileValue(t, profiles["u0"], "user_num_movies"); got != 2 {
		t.Errorf("u0 num movies = %v, want 2", got)
	}
}
