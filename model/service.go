package model

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/pkg/logging"
	"github.com/rushteam/movierec/pkg/metrics"
)

// BreakerSettings 熔断参数
type BreakerSettings struct {
	// MaxRequests 半开状态允许的并发探测请求数
	MaxRequests uint32 `yaml:"max_requests"`
	// Interval 闭合状态下计数的重置周期
	Interval time.Duration `yaml:"interval"`
	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `yaml:"timeout"`
	// MinRequests 计算失败率所需的最少请求数
	MinRequests uint32 `yaml:"min_requests"`
	// FailureRatio 失败率达到该值时打开
	FailureRatio float64 `yaml:"failure_ratio"`
}

// DefaultBreakerSettings 返回默认熔断参数：10 次请求内失败率 >= 60% 即打开，30 秒后半开
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// ServiceModel 把任意 core.MLService（例如 KServe 上的 XGBoost）适配为 Classifier，调用经过熔断器。
// 熔断打开时直接返回 UNAVAILABLE，不再请求下游。
type ServiceModel struct {
	Service   core.MLService
	ModelName string

	cb *gobreaker.CircuitBreaker[*core.MLPredictResponse]
}

// NewServiceModel 创建带熔断的分类器
func NewServiceModel(svc core.MLService, modelName string, settings BreakerSettings) *ServiceModel {
	def := DefaultBreakerSettings()
	if settings.MaxRequests == 0 {
		settings.MaxRequests = def.MaxRequests
	}
	if settings.Interval <= 0 {
		settings.Interval = def.Interval
	}
	if settings.Timeout <= 0 {
		settings.Timeout = def.Timeout
	}
	if settings.MinRequests == 0 {
		settings.MinRequests = def.MinRequests
	}
	if settings.FailureRatio <= 0 {
		settings.FailureRatio = def.FailureRatio
	}

	name := "classifier-" + modelName
	cb := gobreaker.NewCircuitBreaker[*core.MLPredictResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("classifier circuit breaker state change")
			metrics.ClassifierBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.ClassifierBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return &ServiceModel{Service: svc, ModelName: modelName, cb: cb}
}

func (m *ServiceModel) Name() string { return m.ModelName }

// State 返回熔断器当前状态
func (m *ServiceModel) State() gobreaker.State { return m.cb.State() }

func (m *ServiceModel) PredictProba(ctx context.Context, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return []float64{}, nil
	}
	resp, err := m.cb.Execute(func() (*core.MLPredictResponse, error) {
		return m.Service.Predict(ctx, &core.MLPredictRequest{Instances: rows, ModelName: m.ModelName})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeUnavailable, m.ModelName+": circuit open", err)
		}
		return nil, err
	}
	probs := make([]float64, len(resp.Predictions))
	copy(probs, resp.Predictions)
	return finalize(m.ModelName, probs, len(rows))
}

// Close 释放下游服务连接
func (m *ServiceModel) Close(ctx context.Context) error {
	return m.Service.Close(ctx)
}

var _ core.Classifier = (*ServiceModel)(nil)
