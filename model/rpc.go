package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/movierec/core"
)

// RPCModel 是通过 HTTP 调用外部模型服务的 Classifier 实现（GBDT、XGBoost 等自建服务）。
//
// 请求格式（JSON）：
//
//	{"instances": [[0.1, 0.2, ...], ...], "feature_names": ["vote_average", ...]}
//
// 响应格式（JSON），二选一：
//
//	{"probabilities": [0.85, 0.72, ...]}
//	{"scores": [0.85, 0.72, ...]}
type RPCModel struct {
	name     string
	Endpoint string // 例如 "http://localhost:8080/predict"
	Timeout  time.Duration
	Client   *http.Client

	featureNames []string
}

func NewRPCModel(name, endpoint string, timeout time.Duration) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if name == "" {
		name = "rpc"
	}
	return &RPCModel{
		name:     name,
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (m *RPCModel) Name() string {
	return m.name
}

// Bind 记录特征列，随请求一并发送，由服务端校验
func (m *RPCModel) Bind(featureNames []string) error {
	m.featureNames = append([]string(nil), featureNames...)
	return nil
}

// PredictProba 调用远程模型服务进行批量预测。
func (m *RPCModel) PredictProba(ctx context.Context, rows [][]float64) ([]float64, error) {
	if m.Client == nil {
		m.Client = &http.Client{Timeout: m.Timeout}
	}

	if len(rows) == 0 {
		return []float64{}, nil
	}

	// 构建请求
	reqBody := map[string]any{
		"instances": rows,
	}
	if m.featureNames != nil {
		reqBody["feature_names"] = m.featureNames
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 发送请求
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "rpc call", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rpc error: status=%d, read body failed: %w", resp.StatusCode, err)
		}
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable,
			fmt.Sprintf("rpc error: status=%d, body=%s", resp.StatusCode, string(body)))
	}

	// 解析响应
	var result struct {
		Probabilities []float64 `json:"probabilities"`
		Scores        []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	probs := result.Probabilities
	if probs == nil {
		probs = result.Scores
	}
	return finalize(m.name, probs, len(rows))
}

var (
	_ core.Classifier    = (*RPCModel)(nil)
	_ core.FeatureBinder = (*RPCModel)(nil)
)
