package model

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/service"
)

// 分类器类型
const (
	TypeLR     = "lr"
	TypeRPC    = "rpc"
	TypeKServe = "kserve"
)

// Config 是分类器配置（应用配置的 classifier 段）。
//
//	classifier:
//	  type: kserve
//	  endpoint: http://xgb.models.svc:8080
//	  model_name: movie-xgb
//	  protocol: v2
//	  timeout: 2s
type Config struct {
	Type      string              `yaml:"type"`
	Path      string              `yaml:"path"` // lr 模型文件，相对路径相对于产物目录
	Endpoint  string              `yaml:"endpoint"`
	ModelName string              `yaml:"model_name"`
	Protocol  string              `yaml:"protocol"`
	Timeout   time.Duration       `yaml:"timeout"`
	Auth      *service.AuthConfig `yaml:"auth"`
	Breaker   BreakerSettings     `yaml:"breaker"`
}

// Validate 检查类型与必填项
func (c *Config) Validate() error {
	switch c.Type {
	case TypeLR:
		if c.Path == "" {
			return fmt.Errorf("classifier: lr requires path")
		}
	case TypeRPC, TypeKServe:
		if c.Endpoint == "" {
			return fmt.Errorf("classifier: %s requires endpoint", c.Type)
		}
		if c.Type == TypeKServe && c.ModelName == "" {
			return fmt.Errorf("classifier: kserve requires model_name")
		}
	default:
		return fmt.Errorf("classifier: unknown type %q (supported: lr, rpc, kserve)", c.Type)
	}
	return nil
}

// NewClassifier 根据配置创建分类器。artifactsDir 用于解析 lr 模型的相对路径。
func NewClassifier(cfg Config, artifactsDir string) (core.Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeLR:
		path := cfg.Path
		if !filepath.IsAbs(path) && artifactsDir != "" {
			path = filepath.Join(artifactsDir, path)
		}
		return LoadLRModel(path)
	case TypeRPC:
		return NewRPCModel(cfg.ModelName, cfg.Endpoint, cfg.Timeout), nil
	default:
		opts := []service.KServeOption{service.WithKServeAuth(cfg.Auth)}
		if cfg.Protocol != "" {
			opts = append(opts, service.WithKServeProtocol(cfg.Protocol))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, service.WithKServeTimeout(cfg.Timeout))
		}
		client := service.NewKServeClient(cfg.Endpoint, cfg.ModelName, opts...)
		return NewServiceModel(client, cfg.ModelName, cfg.Breaker), nil
	}
}
