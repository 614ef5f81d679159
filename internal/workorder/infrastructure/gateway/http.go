// Package gateway 第三方广告平台网关的 HTTP 适配器
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
)

// Config 网关配置
type Config struct {
	// AccountBaseURL 开户类端点基地址
	AccountBaseURL string
	// FundingBaseURL 资金类端点基地址
	FundingBaseURL string
	// AccessToken 访问令牌
	AccessToken string
	// Timeout 单次调用超时
	Timeout time.Duration
}

// HTTPGateway 基于 HTTP 的网关适配器
// 第三方响应包络不一致：部分端点返回字符串 code，部分返回布尔 success；
// 这里统一归一成 GatewayResult，任何解析失败保留响应原文供审计
type HTTPGateway struct {
	cfg    Config
	client *http.Client
}

// NewHTTPGateway 创建网关适配器
func NewHTTPGateway(cfg Config) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// envelope 第三方响应包络，字段均为可选
type envelope struct {
	Code    flexString      `json:"code"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// envelopeData 响应数据体中关心的字段
type envelopeData struct {
	TaskID flexString `json:"taskId"`
}

// flexString 兼容字符串与数字两种编码的字段
type flexString string

// UnmarshalJSON 实现 json.Unmarshaler
func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = flexString(num.String())
		return nil
	}
	return nil
}

// endpointPaths 端点路径
var endpointPaths = map[domain.GatewayEndpoint]string{
	domain.EndpointAccountApplication: "/openApi/v1/mediaAccountApplication/create",
	domain.EndpointAccountUpdate:      "/openApi/v1/mediaAccountApplication/update",
	domain.EndpointFunding:            "/openApi/v1/mediaAccount/fundsOperation",
}

// Submit 提交请求到指定端点
// 网络失败与超时归一为 FAILED；响应无法解析归一为 MALFORMED_RESPONSE；
// error 仅用于载荷序列化等编程性错误
func (g *HTTPGateway) Submit(ctx context.Context, endpoint domain.GatewayEndpoint, traceID string, payload interface{}) (*domain.GatewayResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway payload: %w", err)
	}

	path, ok := endpointPaths[endpoint]
	if !ok {
		return nil, fmt.Errorf("unknown gateway endpoint: %s", endpoint)
	}
	url := g.baseURL(endpoint) + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", g.cfg.AccessToken)
	req.Header.Set("X-Trace-ID", traceID)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn(ctx, "Gateway call failed",
			"endpoint", endpoint,
			"trace_id", traceID,
			"error", err,
		)
		return &domain.GatewayResult{
			Outcome:      domain.GatewayOutcomeFailed,
			ErrorMessage: fmt.Sprintf("gateway request failed: %v", err),
		}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.GatewayResult{
			Outcome:      domain.GatewayOutcomeFailed,
			ErrorMessage: fmt.Sprintf("read gateway response: %v", err),
		}, nil
	}

	return g.interpret(ctx, endpoint, traceID, resp.StatusCode, raw), nil
}

// interpret 归一化响应包络
// 成功判定：code == "0" 或 success == true，二者任一即可
func (g *HTTPGateway) interpret(ctx context.Context, endpoint domain.GatewayEndpoint, traceID string, statusCode int, raw []byte) *domain.GatewayResult {
	result := &domain.GatewayResult{RawResponse: string(raw)}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn(ctx, "Gateway response is not valid JSON",
			"endpoint", endpoint,
			"trace_id", traceID,
			"http_status", statusCode,
		)
		result.Outcome = domain.GatewayOutcomeMalformed
		result.ErrorMessage = fmt.Sprintf("unparseable gateway response (http %d)", statusCode)
		return result
	}

	succeeded := env.Code == "0" || (env.Success != nil && *env.Success)
	if !succeeded {
		result.Outcome = domain.GatewayOutcomeFailed
		result.ErrorMessage = env.Message
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("gateway returned code %s (http %d)", env.Code, statusCode)
		}
		return result
	}

	result.Outcome = domain.GatewayOutcomeSuccess
	if len(env.Data) > 0 {
		var data envelopeData
		if err := json.Unmarshal(env.Data, &data); err == nil {
			result.ExternalTaskID = string(data.TaskID)
		}
	}
	return result
}

// baseURL 按端点选择基地址
func (g *HTTPGateway) baseURL(endpoint domain.GatewayEndpoint) string {
	if endpoint == domain.EndpointFunding {
		return g.cfg.FundingBaseURL
	}
	return g.cfg.AccountBaseURL
}
