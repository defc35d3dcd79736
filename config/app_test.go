package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/movierec/config"
	_ "github.com/rushteam/movierec/config/builders"
	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movierec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
artifacts_dir: /var/lib/movierec
top_n: 5
timeout: 500ms
classifier:
  type: kserve
  endpoint: http://xgb:8080
  model_name: movie-xgb
  breaker:
    failure_ratio: 0.5
logging:
  level: debug
  format: console
pipeline:
  nodes:
    - type: filter.expr
      config:
        expr: "movie.year >= 1990"
    - type: filter.seed
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopN != 5 || cfg.CandidatePool != core.DefaultCandidatePool {
		t.Errorf("top_n = %d, candidate_pool = %d", cfg.TopN, cfg.CandidatePool)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.Classifier.ModelName != "movie-xgb" || cfg.Classifier.Breaker.FailureRatio != 0.5 {
		t.Errorf("classifier = %+v", cfg.Classifier)
	}
	if cfg.Store.Type != config.StoreFile || cfg.Bundle != "default" {
		t.Errorf("store defaults not applied: %+v bundle=%q", cfg.Store, cfg.Bundle)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	p, err := cfg.Pipeline.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if len(p.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(p.Nodes))
	}

	var rc core.RecommendConfig = cfg
	if rc.DefaultTopN() != 5 {
		t.Errorf("DefaultTopN = %d", rc.DefaultTopN())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AppConfig)
		errMsg string
	}{
		{name: "defaults are valid", mutate: func(*config.AppConfig) {}},
		{name: "pool", mutate: func(c *config.AppConfig) { c.CandidatePool = 0 }, errMsg: "candidate_pool"},
		{name: "top_n", mutate: func(c *config.AppConfig) { c.TopN = -1 }, errMsg: "top_n"},
		{name: "classifier", mutate: func(c *config.AppConfig) { c.Classifier.Type = "svm" }, errMsg: "unknown type"},
		{name: "store type", mutate: func(c *config.AppConfig) { c.Store.Type = "s3" }, errMsg: "unknown store type"},
		{name: "redis addr", mutate: func(c *config.AppConfig) { c.Store.Type = config.StoreRedis }, errMsg: "store.addr"},
		{
			name: "unknown node",
			mutate: func(c *config.AppConfig) {
				c.Pipeline.Nodes = append(c.Pipeline.Nodes, pipelineNode("rerank.diversity"))
			},
			errMsg: "unsupported node type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default()
	s, err := cfg.OpenStore(context.Background())
	if err != nil || s != nil {
		t.Fatalf("file store should open to nil, got %v, %v", s, err)
	}
	cfg.Store.Type = config.StoreMemory
	s, err = cfg.OpenStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*store.MemoryStore); !ok {
		t.Errorf("memory store type = %T", s)
	}
}
