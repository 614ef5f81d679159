package gateway

import (
	"context"
	"sync"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
)

// MockGateway 可编程的网关桩实现，用于测试与本地联调
type MockGateway struct {
	mu sync.Mutex
	// Result 固定返回的结果
	Result *domain.GatewayResult
	// Err 固定返回的错误
	Err error
	// Calls 记录的全部调用
	Calls []MockCall
}

// MockCall 一次网关调用记录
type MockCall struct {
	Endpoint domain.GatewayEndpoint
	TraceID  string
	Payload  interface{}
}

// NewMockGateway 创建默认受理成功的网关桩
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Result: &domain.GatewayResult{
			Outcome:        domain.GatewayOutcomeSuccess,
			ExternalTaskID: "ext-task-1",
			RawResponse:    `{"code":"0","data":{"taskId":"ext-task-1"}}`,
		},
	}
}

// Submit 记录调用并返回预设结果
func (m *MockGateway) Submit(_ context.Context, endpoint domain.GatewayEndpoint, traceID string, payload interface{}) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Endpoint: endpoint, TraceID: traceID, Payload: payload})
	if m.Err != nil {
		return nil, m.Err
	}
	out := *m.Result
	return &out, nil
}

// SetResult 更新预设结果
func (m *MockGateway) SetResult(result *domain.GatewayResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Result = result
}

// CallCount 已记录的调用次数
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
