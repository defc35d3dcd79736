package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rushteam/movierec/config"
	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/filter"
	"github.com/rushteam/movierec/model"
	"github.com/rushteam/movierec/pipeline"
	"github.com/rushteam/movierec/recall"
)

func recIDs(recs []Recommendation) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.MovieID
	}
	return ids
}

func checkRecommendations(t *testing.T, resp *RecommendResponse, seeds []int64) {
	t.Helper()
	seedSet := make(map[int64]bool, len(seeds))
	for _, id := range seeds {
		seedSet[id] = true
	}
	for i, r := range resp.Recommendations {
		if r.Probability <= 0 || r.Probability > 1 {
			t.Errorf("recommendation %d probability = %v, want (0, 1]", r.MovieID, r.Probability)
		}
		if seedSet[r.MovieID] {
			t.Errorf("seed %d returned as recommendation", r.MovieID)
		}
		if i > 0 && r.Probability > resp.Recommendations[i-1].Probability {
			t.Errorf("recommendations not sorted by probability: %v", recIDs(resp.Recommendations))
		}
	}
}

func TestEngine_Recommend(t *testing.T) {
	e := newTestEngine(t)
	resp, err := e.Recommend(context.Background(), &RecommendRequest{MovieIDs: seedIDs, TopN: 3})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(resp.Recommendations))
	}
	checkRecommendations(t, resp, seedIDs)

	if resp.CandidateSource != "recall.genre_overlap" {
		t.Errorf("CandidateSource = %q", resp.CandidateSource)
	}
	if resp.RequestID == "" {
		t.Error("RequestID is empty")
	}
	if len(resp.SeedMovies) != 5 || resp.SeedMovies[0].Title != "Inception" {
		t.Errorf("SeedMovies = %+v", resp.SeedMovies)
	}
	for _, r := range resp.Recommendations {
		if r.MovieID == 129 {
			t.Error("movie without overlapping genres was recommended")
		}
		if r.ProbabilityPct == "" || r.Title == "" {
			t.Errorf("incomplete record %+v", r)
		}
	}

	s := resp.Summary
	if s == nil {
		t.Fatal("Summary is nil")
	}
	if s.NSeedMovies != 5 || s.AvgVoteAverage != 8.2 {
		t.Errorf("Summary = %+v", s)
	}
	want := []string{"Action", "Adventure", "Comedy", "Drama", "Science Fiction", "Thriller"}
	if len(s.GenresInSeeds) != len(want) {
		t.Fatalf("GenresInSeeds = %v, want %v", s.GenresInSeeds, want)
	}
	for i := range want {
		if s.GenresInSeeds[i] != want[i] {
			t.Errorf("GenresInSeeds[%d] = %q, want %q", i, s.GenresInSeeds[i], want[i])
		}
	}
}

func TestEngine_RecommendTopN(t *testing.T) {
	e := newTestEngine(t, WithTopN(2))
	tests := []struct {
		topN int
		want int
	}{
		{topN: 0, want: 2},
		{topN: 5, want: 5},
		{topN: 50, want: 6},
	}
	for _, tt := range tests {
		resp, err := e.Recommend(context.Background(), &RecommendRequest{MovieIDs: seedIDs, TopN: tt.topN})
		if err != nil {
			t.Fatalf("top_n=%d: %v", tt.topN, err)
		}
		if len(resp.Recommendations) != tt.want {
			t.Errorf("top_n=%d: got %d recommendations, want %d", tt.topN, len(resp.Recommendations), tt.want)
		}
	}
}

func TestEngine_PopularityFallback(t *testing.T) {
	e := newTestEngine(t)
	seeds := []int64{900001, 900002, 1, 2, 3}
	resp, err := e.Recommend(context.Background(), &RecommendRequest{MovieIDs: seeds})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.CandidateSource != (&recall.Popularity{}).Name() {
		t.Errorf("CandidateSource = %q, want popularity fallback", resp.CandidateSource)
	}
	if len(resp.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(resp.Recommendations))
	}
	checkRecommendations(t, resp, seeds)
	if len(resp.SeedMovies) != 2 || resp.Summary.NSeedMovies != 2 {
		t.Errorf("seeds = %d, summary = %+v", len(resp.SeedMovies), resp.Summary)
	}
	if len(resp.Summary.GenresInSeeds) != 0 {
		t.Errorf("GenresInSeeds = %v, want empty", resp.Summary.GenresInSeeds)
	}
}

func TestEngine_ExplicitCandidates(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Recommend(context.Background(), &RecommendRequest{
		MovieIDs:   seedIDs,
		Candidates: []int64{129, 603, 42},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if ids := recIDs(resp.Recommendations); len(ids) != 1 || ids[0] != 129 {
		t.Errorf("recommendations = %v, want [129]", ids)
	}

	resp, err = e.Recommend(context.Background(), &RecommendRequest{MovieIDs: seedIDs, Candidates: []int64{}})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Recommendations) != 0 || resp.Summary != nil {
		t.Errorf("empty candidate list: got %d recommendations, summary %+v", len(resp.Recommendations), resp.Summary)
	}
	if len(resp.SeedMovies) != 5 {
		t.Errorf("SeedMovies = %d, want 5", len(resp.SeedMovies))
	}
}

func TestEngine_Filters(t *testing.T) {
	recent, err := filter.NewExprFilter(`movie.year >= 2005`)
	if err != nil {
		t.Fatal(err)
	}
	filters := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&filter.FilterNode{Filters: []filter.Filter{recent}},
	}}
	e := newTestEngine(t, WithFilters(filters))

	resp, err := e.Recommend(context.Background(), &RecommendRequest{MovieIDs: seedIDs})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("recommendations = %v, want the two post-2005 candidates", recIDs(resp.Recommendations))
	}
	for _, r := range resp.Recommendations {
		if r.Year < 2005 {
			t.Errorf("movie %d (%d) should have been filtered", r.MovieID, r.Year)
		}
	}
	if got := e.Info().Filters; len(got) != 1 || got[0] != "filter.node" {
		t.Errorf("Info().Filters = %v", got)
	}
}

func TestEngine_RecommendErrors(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		req  *RecommendRequest
	}{
		{name: "nil request", req: nil},
		{name: "four ids", req: &RecommendRequest{MovieIDs: []int64{27205, 603, 496243, 550}}},
		{name: "duplicate ids", req: &RecommendRequest{MovieIDs: []int64{27205, 603, 496243, 550, 550}}},
		{name: "non-positive id", req: &RecommendRequest{MovieIDs: []int64{27205, 603, 496243, 550, 0}}},
		{name: "none in catalog", req: &RecommendRequest{MovieIDs: []int64{1, 2, 3, 4, 5}}},
		{name: "negative top_n", req: &RecommendRequest{MovieIDs: seedIDs, TopN: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Recommend(context.Background(), tt.req)
			if !core.IsInvalidInput(err) {
				t.Fatalf("err = %v, want INVALID_INPUT", err)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recommend(ctx, &RecommendRequest{MovieIDs: seedIDs}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: err = %v", err)
	}
}

func TestNewEngine_FeatureMismatch(t *testing.T) {
	clf := &model.LRModel{Weights: map[string]float64{}, FeatureNames: []string{"vote_average"}}
	_, err := NewEngine(testTransformer(), clf)
	if !core.IsFeatureMismatch(err) {
		t.Fatalf("err = %v, want FEATURE_MISMATCH", err)
	}

	if _, err := NewEngine(testTransformer(), nil); err == nil {
		t.Error("nil classifier should fail")
	}
}

func TestEngine_Search(t *testing.T) {
	e := newTestEngine(t)

	got := e.Search("THE", 1, 10)
	if got.Total != 2 || len(got.Movies) != 2 {
		t.Fatalf("Search = %+v", got)
	}
	if got.Movies[0].MovieID != 603 || got.Movies[1].MovieID != 155 {
		t.Errorf("order = [%d %d], want catalog order [603 155]", got.Movies[0].MovieID, got.Movies[1].MovieID)
	}
	if got.Movies[0].Popularity == nil || *got.Movies[0].Popularity != 70 {
		t.Errorf("popularity = %v, want 70", got.Movies[0].Popularity)
	}

	if all := e.Search("", 1, 100); all.Total != 14 {
		t.Errorf("empty query total = %d, want 14", all.Total)
	}
	if none := e.Search("zzz", 1, 10); none.Total != 0 || len(none.Movies) != 0 {
		t.Errorf("no match = %+v", none)
	}
}

func TestEngine_List(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name     string
		page     int
		size     int
		want     []int64
		wantPage int
		wantSize int
	}{
		{name: "first page", page: 1, size: 3, want: []int64{157336, 155, 27205}, wantPage: 1, wantSize: 3},
		{name: "last page", page: 5, size: 3, want: []int64{900002, 900001}, wantPage: 5, wantSize: 3},
		{name: "past the end", page: 9, size: 3, want: []int64{}, wantPage: 9, wantSize: 3},
		{name: "defaults", page: 0, size: 0, wantPage: 1, wantSize: DefaultPageSize},
		{name: "size capped", page: 1, size: 1000, wantPage: 1, wantSize: MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.List(tt.page, tt.size)
			if got.Total != 14 || got.Page != tt.wantPage || got.PageSize != tt.wantSize {
				t.Fatalf("List = total %d page %d size %d", got.Total, got.Page, got.PageSize)
			}
			if tt.want == nil {
				return
			}
			if len(got.Movies) != len(tt.want) {
				t.Fatalf("got %d movies, want %v", len(got.Movies), tt.want)
			}
			for i, id := range tt.want {
				if got.Movies[i].MovieID != id {
					t.Errorf("movie %d = %d, want %d", i, got.Movies[i].MovieID, id)
				}
			}
		})
	}

	first := e.List(1, 1).Movies[0]
	if first.Popularity == nil || *first.Popularity != 90 || first.VoteAverage != 8.4 || first.Year != 2014 {
		t.Errorf("record = %+v", first)
	}
}

func TestEngine_Info(t *testing.T) {
	e := newTestEngine(t, WithCandidatePool(50))
	info := e.Info()
	if info.CatalogSize != 14 || info.Classifier != "lr" || info.CandidatePool != 50 || info.TopN != 3 {
		t.Errorf("Info = %+v", info)
	}
	if info.BundleID == "" || info.FeatureCount != len(e.Transformer().FeatureNames()) {
		t.Errorf("Info = %+v", info)
	}
	if info.ReferenceYear != core.DefaultReferenceYear {
		t.Errorf("ReferenceYear = %d", info.ReferenceYear)
	}
}

func TestNewEngineFromConfig(t *testing.T) {
	dir := writeArtifacts(t)

	for _, storeType := range []string{config.StoreFile, config.StoreMemory} {
		t.Run(storeType, func(t *testing.T) {
			cfg := config.Default()
			cfg.ArtifactsDir = dir
			cfg.Store.Type = storeType
			cfg.Pipeline.Nodes = []pipeline.NodeConfig{
				{Type: "filter.seed"},
			}

			e, err := NewEngineFromConfig(context.Background(), cfg)
			if err != nil {
				t.Fatalf("NewEngineFromConfig: %v", err)
			}
			defer e.Close()

			resp, err := e.Recommend(context.Background(), &RecommendRequest{MovieIDs: seedIDs})
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if len(resp.Recommendations) != 3 {
				t.Errorf("got %d recommendations, want 3", len(resp.Recommendations))
			}
			checkRecommendations(t, resp, seedIDs)
		})
	}
}

func TestNewEngineFromConfig_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.ArtifactsDir = t.TempDir()
	if _, err := NewEngineFromConfig(context.Background(), cfg); !core.IsNotFound(err) {
		t.Errorf("missing bundle: err = %v, want NOT_FOUND", err)
	}

	cfg = config.Default()
	cfg.TopN = 0
	if _, err := NewEngineFromConfig(context.Background(), cfg); err == nil {
		t.Error("invalid config should fail")
	}
}

func TestNewEngineFromConfig_BlacklistStoreNotShared(t *testing.T) {
	dir := writeArtifacts(t)
	blacklist := []pipeline.NodeConfig{{Type: "filter.blacklist", Config: map[string]interface{}{"key": "bl"}}}

	cfg := config.Default()
	cfg.ArtifactsDir = dir
	cfg.Store.Type = config.StoreMemory
	cfg.Pipeline.Nodes = blacklist
	e, err := NewEngineFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("memory store engine: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	// file 存储没有 Store，带 key 的黑名单不能复用上一个引擎已关闭的存储
	cfg = config.Default()
	cfg.ArtifactsDir = dir
	cfg.Pipeline.Nodes = blacklist
	if e, err := NewEngineFromConfig(context.Background(), cfg); err == nil {
		e.Close()
		t.Fatal("file store engine with a blacklist key should fail")
	} else if !strings.Contains(err.Error(), "requires a store") {
		t.Errorf("err = %v", err)
	}
}
