package domain

import (
	"context"
	"time"
)

// ListFilter 工单列表查询条件
type ListFilter struct {
	// 状态
	Status Status
	// 工单类型
	Type WorkOrderType
	// 子类型
	Subtype WorkOrderSubtype
	// 提交人
	UserID string
	// 任务号/任务 ID/账户名模糊搜索
	Keyword string
	// 创建时间下界
	DateFrom *time.Time
	// 创建时间上界
	DateTo *time.Time
}

// WorkOrderListRow 列表读模型行：工单字段与业务数据投影合并
type WorkOrderListRow struct {
	WorkOrder    *WorkOrder
	BusinessData *BusinessData
}

// WorkOrderRepository 工单仓储接口
// Transaction 内回调收到的仓储实例绑定同一事务，其上的全部写入同生共死
type WorkOrderRepository interface {
	// Transaction 在事务中执行
	Transaction(ctx context.Context, fn func(repo WorkOrderRepository) error) error

	// CreateWorkOrder 创建工单
	CreateWorkOrder(ctx context.Context, wo *WorkOrder) error
	// UpdateWorkOrder 保存工单变更
	UpdateWorkOrder(ctx context.Context, wo *WorkOrder) error
	// GetByID 按内部 ID 获取工单
	GetByID(ctx context.Context, id uint) (*WorkOrder, error)
	// GetByTaskID 按任务 ID 获取工单
	GetByTaskID(ctx context.Context, taskID string) (*WorkOrder, error)
	// GetByTaskIDForUpdate 按任务 ID 获取工单并加行锁，用于并发编辑串行化
	GetByTaskIDForUpdate(ctx context.Context, taskID string) (*WorkOrder, error)

	// CreateRawData 追加原始数据快照
	CreateRawData(ctx context.Context, rd *RawData) error
	// UpdateRawData 更新快照的同步状态/响应
	UpdateRawData(ctx context.Context, rd *RawData) error
	// ListRawData 获取工单的全部快照历史（按创建时间倒序）
	ListRawData(ctx context.Context, workOrderID uint) ([]*RawData, error)

	// SaveBusinessData 写入业务数据投影（upsert 语义）
	SaveBusinessData(ctx context.Context, bd *BusinessData) error
	// GetBusinessData 获取工单的业务数据投影
	GetBusinessData(ctx context.Context, workOrderID uint) (*BusinessData, error)

	// CreateCompanyInfo 写入公司信息快照及附件
	CreateCompanyInfo(ctx context.Context, ci *CompanyInfo) error
	// SaveCompanyInfo 按工单替换公司信息快照及附件（upsert 语义）
	SaveCompanyInfo(ctx context.Context, ci *CompanyInfo) error
	// GetCompanyInfo 获取工单的公司信息快照
	GetCompanyInfo(ctx context.Context, workOrderID uint) (*CompanyInfo, error)

	// List 分页查询工单列表，合并业务数据投影
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*WorkOrderListRow, int64, error)
	// CountByStatus 按状态统计工单数
	CountByStatus(ctx context.Context, status Status) (int64, error)
}

// AuditLogRepository 审计日志仓储，只追加
type AuditLogRepository interface {
	// Append 追加审计条目
	Append(ctx context.Context, entry *AuditLogEntry) error
	// ListByEntity 按实体与时间范围查询
	ListByEntity(ctx context.Context, entityType string, entityID uint, from, to *time.Time) ([]*AuditLogEntry, error)
}

// UserCompanyInfoRepository 用户公司信息模板仓储
type UserCompanyInfoRepository interface {
	// GetByID 获取模板
	GetByID(ctx context.Context, id uint) (*UserCompanyInfo, error)
}

// AuditEventPublisher 审计事件发布接口，提交后尽力而为，失败不影响业务结果
type AuditEventPublisher interface {
	// PublishAuditEntry 发布审计事件
	PublishAuditEntry(ctx context.Context, entry *AuditLogEntry) error
}
