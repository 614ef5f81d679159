// Package messaging 审计事件的 Kafka 发布实现
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/mq"
)

// auditEvent 发布到 Kafka 的审计事件体
type auditEvent struct {
	EntityType  string `json:"entityType"`
	EntityID    uint   `json:"entityId"`
	Action      string `json:"action"`
	PerformedBy string `json:"performedBy"`
	NewValue    string `json:"newValue,omitempty"`
	OccurredAt  string `json:"occurredAt"`
}

// KafkaAuditPublisher 审计事件的 Kafka 发布器
// 以实体 ID 作为分区键，保证同一工单的事件有序
type KafkaAuditPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaAuditPublisher 创建审计事件发布器
func NewKafkaAuditPublisher(producer *mq.KafkaProducer, topic string) *KafkaAuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

// PublishAuditEntry 发布审计事件
func (p *KafkaAuditPublisher) PublishAuditEntry(ctx context.Context, entry *domain.AuditLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	event := auditEvent{
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Action:      string(entry.Action),
		PerformedBy: entry.PerformedBy,
		NewValue:    entry.NewValue,
		OccurredAt:  createdAt.Format(time.RFC3339),
	}

	key := fmt.Sprintf("%s-%d", entry.EntityType, entry.EntityID)
	return p.producer.SendMessage(ctx, p.topic, key, event)
}
