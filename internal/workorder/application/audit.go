package application

import (
	"context"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
)

// AuditRecorder 审计记录器：落库 + 发布事件
// 审计是历史记录，失败只告警不阻断业务流程
type AuditRecorder struct {
	repo      domain.AuditLogRepository
	publisher domain.AuditEventPublisher
}

// NewAuditRecorder 创建审计记录器，publisher 可为 nil（未接入消息队列时）
func NewAuditRecorder(repo domain.AuditLogRepository, publisher domain.AuditEventPublisher) *AuditRecorder {
	return &AuditRecorder{repo: repo, publisher: publisher}
}

// Record 追加审计条目并发布事件
func (a *AuditRecorder) Record(ctx context.Context, entry *domain.AuditLogEntry) {
	if err := a.repo.Append(ctx, entry); err != nil {
		logger.Error(ctx, "Failed to append audit log entry",
			"entity_id", entry.EntityID,
			"action", entry.Action,
			"error", err,
		)
		return
	}

	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishAuditEntry(ctx, entry); err != nil {
		logger.Warn(ctx, "Failed to publish audit event",
			"entity_id", entry.EntityID,
			"action", entry.Action,
			"error", err,
		)
	}
}
