// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标集合
type Metrics struct {
	serviceName string

	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec
	// WorkOrdersTotal 工单创建总数（按类型/子类型）
	WorkOrdersTotal *prometheus.CounterVec
	// StatusTransitionsTotal 工单状态流转总数
	StatusTransitionsTotal *prometheus.CounterVec
	// GatewayRequestsTotal 第三方网关调用总数（按结果）
	GatewayRequestsTotal *prometheus.CounterVec
	// GatewayRequestDuration 第三方网关调用耗时
	GatewayRequestDuration *prometheus.HistogramVec
	// PendingWorkOrders 当前待处理工单数
	PendingWorkOrders prometheus.Gauge
}

// New 创建指标集合
func New(serviceName string) *Metrics {
	return &Metrics{
		serviceName: serviceName,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
			[]string{"method", "path"},
		),
		WorkOrdersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workorders_created_total",
				Help: "Total number of work orders created",
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
			[]string{"type", "subtype"},
		),
		StatusTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workorder_status_transitions_total",
				Help: "Total number of work order status transitions",
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
			[]string{"from", "to"},
		),
		GatewayRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Total number of third-party gateway calls",
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
			[]string{"endpoint", "outcome"},
		),
		GatewayRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Third-party gateway call duration in seconds",
				Buckets: prometheus.DefBuckets,
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
			[]string{"endpoint"},
		),
		PendingWorkOrders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "workorders_pending",
				Help: "Number of work orders currently pending review",
				ConstLabels: prometheus.Labels{
					"service": serviceName,
				},
			},
		),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WorkOrdersTotal,
		m.StatusTransitionsTotal,
		m.GatewayRequestsTotal,
		m.GatewayRequestDuration,
		m.PendingWorkOrders,
	}

	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return fmt.Errorf("failed to register collector: %w", err)
			}
		}
	}
	return nil
}

// StartHTTPServer 启动独立的指标 HTTP 服务
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
	}()
	return nil
}
