package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/model"
	"github.com/rushteam/movierec/pipeline"
	"github.com/rushteam/movierec/pkg/logging"
	"github.com/rushteam/movierec/store"
)

// 产物存放后端
const (
	StoreFile   = "file"   // 直接读写 artifacts_dir
	StoreMemory = "memory" // 进程内，测试用
	StoreRedis  = "redis"
)

// AppConfig 是推理服务/CLI 的应用配置。
//
//	artifacts_dir: ./artifacts
//	bundle: default
//	candidate_pool: 500
//	top_n: 3
//	classifier:
//	  type: lr
//	  path: model.json
//	store:
//	  type: file
//	logging:
//	  level: info
//	pipeline:
//	  nodes:
//	    - type: filter.expr
//	      config: {expr: "movie.year >= 1990"}
type AppConfig struct {
	ArtifactsDir  string          `yaml:"artifacts_dir"`
	Bundle        string          `yaml:"bundle"`
	CandidatePool int             `yaml:"candidate_pool"`
	TopN          int             `yaml:"top_n"`
	Timeout       time.Duration   `yaml:"timeout"`
	Classifier    model.Config    `yaml:"classifier"`
	Store         StoreConfig     `yaml:"store"`
	Logging       logging.Config  `yaml:"logging"`
	Pipeline      pipeline.Config `yaml:"pipeline"`
}

// StoreConfig 产物存储配置
type StoreConfig struct {
	Type string `yaml:"type"`
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Default 返回默认配置：本地目录产物 + LR 模型
func Default() *AppConfig {
	return &AppConfig{
		ArtifactsDir:  "artifacts",
		Bundle:        "default",
		CandidatePool: core.DefaultCandidatePool,
		TopN:          core.DefaultTopN,
		Timeout:       (&core.DefaultRecommendConfig{}).DefaultTimeout(),
		Classifier:    model.Config{Type: model.TypeLR, Path: "model.json"},
		Store:         StoreConfig{Type: StoreFile},
		Logging:       logging.DefaultConfig(),
	}
}

// Load 读取 YAML 配置，未给出的字段取默认值，并执行校验
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验数值范围、分类器、存储类型与 pipeline 节点类型
func (c *AppConfig) Validate() error {
	if c.CandidatePool <= 0 {
		return fmt.Errorf("config: candidate_pool must be positive, got %d", c.CandidatePool)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("config: top_n must be positive, got %d", c.TopN)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Store.Type {
	case StoreFile:
		if c.ArtifactsDir == "" {
			return fmt.Errorf("config: artifacts_dir is required for file store")
		}
	case StoreMemory:
	case StoreRedis:
		if c.Store.Addr == "" {
			return fmt.Errorf("config: store.addr is required for redis store")
		}
	default:
		return fmt.Errorf("config: unknown store type %q (supported: file, memory, redis)", c.Store.Type)
	}
	if c.Store.Type != StoreFile && c.Bundle == "" {
		return fmt.Errorf("config: bundle name is required for %s store", c.Store.Type)
	}
	return ValidatePipelineConfig(&c.Pipeline)
}

// OpenStore 按配置打开产物存储；file 类型返回 nil
func (c *AppConfig) OpenStore(ctx context.Context) (core.Store, error) {
	switch c.Store.Type {
	case StoreMemory:
		return store.NewMemoryStore(), nil
	case StoreRedis:
		return store.NewRedisStore(ctx, c.Store.Addr, c.Store.DB)
	default:
		return nil, nil
	}
}

// DefaultCandidatePool 实现 core.RecommendConfig
func (c *AppConfig) DefaultCandidatePool() int { return c.CandidatePool }

// DefaultTopN 实现 core.RecommendConfig
func (c *AppConfig) DefaultTopN() int { return c.TopN }

// DefaultTimeout 实现 core.RecommendConfig
func (c *AppConfig) DefaultTimeout() time.Duration { return c.Timeout }

var _ core.RecommendConfig = (*AppConfig)(nil)
