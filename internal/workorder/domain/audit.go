package domain

import (
	"time"
)

// AuditAction 审计动作
type AuditAction string

const (
	AuditActionCreate               AuditAction = "CREATE"
	AuditActionUpdate               AuditAction = "UPDATE"
	AuditActionApprove              AuditAction = "APPROVE"
	AuditActionReject               AuditAction = "REJECT"
	AuditActionReturn               AuditAction = "RETURN"
	AuditActionUpdateExternalTaskID AuditAction = "UPDATE_EXTERNAL_TASK_ID"
)

// AuditLogEntry 审计日志条目，只追加，永不更新或删除
// 对工单为弱引用：记录历史，独立于展示需要而存续
type AuditLogEntry struct {
	// 主键
	ID uint `gorm:"primaryKey" json:"id"`
	// 实体类型
	EntityType string `gorm:"column:entity_type;type:varchar(32);index:idx_audit_entity;not null" json:"entity_type"`
	// 实体 ID
	EntityID uint `gorm:"column:entity_id;index:idx_audit_entity;not null" json:"entity_id"`
	// 动作
	Action AuditAction `gorm:"column:action;type:varchar(32);not null" json:"action"`
	// 操作人
	PerformedBy string `gorm:"column:performed_by;type:varchar(64);not null" json:"performed_by"`
	// 关键字段快照（JSON）
	NewValue string `gorm:"column:new_value;type:text" json:"new_value,omitempty"`
	// 记录时间
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuditLogEntry) TableName() string {
	return "work_order_audit_logs"
}

// EntityTypeWorkOrder 工单实体类型标识
const EntityTypeWorkOrder = "WORK_ORDER"

// NewAuditLogEntry 创建工单审计条目
func NewAuditLogEntry(entityID uint, action AuditAction, performedBy, newValue string) *AuditLogEntry {
	return &AuditLogEntry{
		EntityType:  EntityTypeWorkOrder,
		EntityID:    entityID,
		Action:      action,
		PerformedBy: performedBy,
		NewValue:    newValue,
	}
}
