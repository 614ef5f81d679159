package domain

import (
	"context"
)

// GatewayOutcome 网关调用结果分类
type GatewayOutcome string

const (
	// GatewayOutcomeSuccess 第三方受理成功
	GatewayOutcomeSuccess GatewayOutcome = "SUCCESS"
	// GatewayOutcomeFailed 第三方明确失败或调用超时
	GatewayOutcomeFailed GatewayOutcome = "FAILED"
	// GatewayOutcomeMalformed 响应无法解析，原文保留供审计
	GatewayOutcomeMalformed GatewayOutcome = "MALFORMED_RESPONSE"
)

// GatewayResult 统一的网关调用结果
// 第三方响应包络不一致，适配器负责归一，业务层只看这里
type GatewayResult struct {
	// 结果分类
	Outcome GatewayOutcome
	// 第三方返回的任务 ID（成功时）
	ExternalTaskID string
	// 响应原文
	RawResponse string
	// 失败原因
	ErrorMessage string
}

// GatewayEndpoint 网关端点
type GatewayEndpoint string

const (
	EndpointAccountApplication GatewayEndpoint = "account-application"
	EndpointAccountUpdate      GatewayEndpoint = "account-update"
	EndpointFunding            GatewayEndpoint = "funding"
)

// Gateway 第三方广告平台网关适配器接口
// 调用失败、超时、响应畸形均通过 GatewayResult 表达；error 只用于载荷序列化等编程性错误。
// 重试不在适配器职责内。
type Gateway interface {
	// Submit 提交请求到指定端点，traceID 随请求透传用于跨系统关联
	Submit(ctx context.Context, endpoint GatewayEndpoint, traceID string, payload interface{}) (*GatewayResult, error)
}
