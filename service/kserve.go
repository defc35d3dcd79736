package service

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

// KServeProtocol 指定 KServe 协议版本。
const (
	KServeV1 = "v1"
	KServeV2 = "v2"
)

// KServeClient 是 KServe V1/V2 协议的客户端实现，用于调用部署在 KServe 上的二分类模型（如 XGBoost）。
//
// KServe V1（基于 TensorFlow Serving REST）：
//   - Predict: POST /v1/models/{model_name}:predict
//   - 请求：{"instances": [[...], ...]}
//   - 响应：{"predictions": [...]}，元素为标量或 [p0, p1]
//   - Model Ready: GET /v1/models/{model_name}
//
// KServe V2（Open Inference Protocol）：
//   - Infer: POST /v2/models/{model_name}[/versions/{version}]/infer
//   - 请求：{"inputs": [{"name": "input0", "shape": [batch, dim], "datatype": "FP64", "data": [...]}]}
//   - 响应：{"outputs": [{"name": "...", "shape": [batch] 或 [batch, 2], "data": [...]}]}
//   - Server Ready: GET /v2/health/ready
//
// 输出为 [p0, p1] 形式时取正类概率 p1。
// 网络错误与非 200 响应返回 UNAVAILABLE。
type KServeClient struct {
	// Endpoint 服务根地址，如 "http://localhost:8000"
	Endpoint string
	// ModelName 模型名称
	ModelName string
	// ModelVersion 模型版本（可选，V2 路径中会带 /versions/{version}）
	ModelVersion string
	// Protocol 协议版本："v1" 或 "v2"，默认 "v2"
	Protocol string
	// V2InputName V2 协议下输入张量名称，默认 "input0"
	V2InputName string
	// V2OutputName V2 协议下期望的输出张量名称；空则取 outputs[0]
	V2OutputName string
	// Timeout 请求超时
	Timeout time.Duration
	// Auth 认证配置
	Auth *AuthConfig

	httpClient *http.Client
}

// NewKServeClient 创建 KServe 客户端。endpoint 为根地址（如 http://localhost:8000），modelName 为模型名。
func NewKServeClient(endpoint, modelName string, opts ...KServeOption) *KServeClient {
	c := &KServeClient{
		Endpoint:    endpoint,
		ModelName:   modelName,
		Protocol:    KServeV2,
		V2InputName: "input0",
		Timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// KServeOption 配置 KServe 客户端
type KServeOption func(*KServeClient)

// WithKServeVersion 设置模型版本（V2 路径会带 /versions/{version}）
func WithKServeVersion(version string) KServeOption {
	return func(c *KServeClient) {
		c.ModelVersion = version
	}
}

// WithKServeProtocol 设置协议："v1" 或 "v2"
func WithKServeProtocol(protocol string) KServeOption {
	return func(c *KServeClient) {
		if protocol == KServeV1 || protocol == KServeV2 {
			c.Protocol = protocol
		}
	}
}

// WithKServeV2InputName 设置 V2 协议下输入张量名称
func WithKServeV2InputName(name string) KServeOption {
	return func(c *KServeClient) {
		c.V2InputName = name
	}
}

// WithKServeV2OutputName 设置 V2 协议下期望的输出张量名称（解析响应时优先匹配）
func WithKServeV2OutputName(name string) KServeOption {
	return func(c *KServeClient) {
		c.V2OutputName = name
	}
}

// WithKServeTimeout 设置超时
func WithKServeTimeout(timeout time.Duration) KServeOption {
	return func(c *KServeClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithKServeAuth 设置认证
func WithKServeAuth(auth *AuthConfig) KServeOption {
	return func(c *KServeClient) {
		c.Auth = auth
	}
}

// WithKServeHTTPClient 设置自定义 HTTP 客户端
func WithKServeHTTPClient(client *http.Client) KServeOption {
	return func(c *KServeClient) {
		c.httpClient = client
	}
}

// Predict 实现 core.MLService。
func (c *KServeClient) Predict(ctx context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	if req == nil || len(req.Instances) == 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "kserve: instances are required")
	}
	if c.Protocol == KServeV1 {
		return c.predictV1(ctx, req)
	}
	return c.predictV2(ctx, req)
}

// predictV1 使用 V1 协议：POST /v1/models/{model_name}:predict，请求 instances，响应 predictions。
func (c *KServeClient) predictV1(ctx context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	url := fmt.Sprintf("%s/v1/models/%s:predict", c.Endpoint, c.modelName(req))
	body, err := c.post(ctx, "v1", url, map[string]interface{}{"instances": req.Instances})
	if err != nil {
		return nil, err
	}

	var out struct {
		Predictions []interface{} `json:"predictions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("kserve v1 parse response: %w", err)
	}
	predictions := make([]float64, 0, len(out.Predictions))
	for _, v := range out.Predictions {
		f, ok := positiveClass(v)
		if !ok {
			return nil, fmt.Errorf("kserve v1 parse response: unexpected prediction %v", v)
		}
		predictions = append(predictions, f)
	}
	return &core.MLPredictResponse{
		Predictions:  predictions,
		Outputs:      string(body),
		ModelVersion: c.ModelVersion,
	}, nil
}

// predictV2 使用 V2 协议：POST /v2/models/{model_name}/infer，请求 inputs 张量，响应 outputs。
func (c *KServeClient) predictV2(ctx context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	path := fmt.Sprintf("%s/v2/models/%s", c.Endpoint, c.modelName(req))
	version := c.ModelVersion
	if req.ModelVersion != "" {
		version = req.ModelVersion
	}
	if version != "" {
		path = fmt.Sprintf("%s/versions/%s", path, version)
	}

	// 展平为行优先
	rows := len(req.Instances)
	dim := len(req.Instances[0])
	data := make([]float64, 0, rows*dim)
	for _, row := range req.Instances {
		if len(row) != dim {
			return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
				fmt.Sprintf("kserve v2: ragged instances (%d vs %d columns)", len(row), dim))
		}
		data = append(data, row...)
	}

	inputName := c.V2InputName
	if inputName == "" {
		inputName = "input0"
	}
	reqBody := map[string]interface{}{
		"inputs": []map[string]interface{}{
			{
				"name":     inputName,
				"shape":    []int{rows, dim},
				"datatype": "FP64",
				"data":     data,
			},
		},
	}
	body, err := c.post(ctx, "v2", path+"/infer", reqBody)
	if err != nil {
		return nil, err
	}

	predictions, modelVersion, err := c.parseV2Outputs(body, rows)
	if err != nil {
		return nil, err
	}
	if modelVersion == "" {
		modelVersion = version
	}
	return &core.MLPredictResponse{
		Predictions:  predictions,
		Outputs:      string(body),
		ModelVersion: modelVersion,
	}, nil
}

func (c *KServeClient) modelName(req *core.MLPredictRequest) string {
	if req.ModelName != "" {
		return req.ModelName
	}
	return c.ModelName
}

func (c *KServeClient) post(ctx context.Context, proto, url string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("kserve %s marshal request: %w", proto, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("kserve %s create request: %w", proto, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.Auth.Apply(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleService, core.ErrorCodeUnavailable, "kserve "+proto+" request failed", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kserve %s read response: %w", proto, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("kserve %s error: status=%d, body=%s", proto, resp.StatusCode, string(bodyBytes)))
	}
	return bodyBytes, nil
}

// v2InferResponse 对应 V2 推理响应
type v2InferResponse struct {
	ModelName    string           `json:"model_name"`
	ModelVersion string           `json:"model_version"`
	Outputs      []v2OutputTensor `json:"outputs"`
}

type v2OutputTensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

func (c *KServeClient) parseV2Outputs(body []byte, rows int) ([]float64, string, error) {
	var out v2InferResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, "", fmt.Errorf("kserve v2 parse response: %w", err)
	}
	if len(out.Outputs) == 0 {
		return nil, "", fmt.Errorf("kserve v2 empty outputs")
	}
	// 若指定了 V2OutputName 则优先匹配
	tensor := &out.Outputs[0]
	for i := range out.Outputs {
		if c.V2OutputName != "" && out.Outputs[i].Name == c.V2OutputName {
			tensor = &out.Outputs[i]
			break
		}
	}

	// [batch, k] 形状取每行最后一列（正类）
	if rows > 0 && len(tensor.Data) > rows && len(tensor.Data)%rows == 0 {
		k := len(tensor.Data) / rows
		predictions := make([]float64, rows)
		for i := range predictions {
			predictions[i] = tensor.Data[i*k+k-1]
		}
		return predictions, out.ModelVersion, nil
	}
	return tensor.Data, out.ModelVersion, nil
}

// positiveClass 解析单个预测：标量直接返回，数组取最后一个元素
func positiveClass(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case []interface{}:
		if len(val) > 0 {
			return positiveClass(val[len(val)-1])
		}
		return 0, false
	default:
		return 0, false
	}
}

// Health 实现 core.MLService。V1 使用 GET /v1/models/{model_name}，V2 使用 GET /v2/health/ready。
func (c *KServeClient) Health(ctx context.Context) error {
	var url string
	if c.Protocol == KServeV1 {
		url = fmt.Sprintf("%s/v1/models/%s", c.Endpoint, c.ModelName)
	} else {
		url = fmt.Sprintf("%s/v2/health/ready", c.Endpoint)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("kserve health create request: %w", err)
	}
	c.Auth.Apply(httpReq)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.WrapDomainError(core.ModuleService, core.ErrorCodeUnavailable, "kserve health request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("kserve health failed: status=%d, body=%s", resp.StatusCode, string(bodyBytes)))
	}
	return nil
}

// Close 实现 core.MLService。
func (c *KServeClient) Close(ctx context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

var _ core.MLService = (*KServeClient)(nil)
