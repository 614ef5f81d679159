// Package persistence 基于 GORM 的工单仓储实现
package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	pkgdb "github.com/jqjjian/ad-workflow-sub001/pkg/db"
)

// GormWorkOrderRepository 工单仓储的 GORM 实现
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewGormWorkOrderRepository 创建工单仓储
func NewGormWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

// Transaction 在数据库事务中执行，回调拿到的仓储绑定该事务
func (r *GormWorkOrderRepository) Transaction(ctx context.Context, fn func(repo domain.WorkOrderRepository) error) error {
	return pkgdb.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&GormWorkOrderRepository{db: tx})
	})
}

// CreateWorkOrder 创建工单
func (r *GormWorkOrderRepository) CreateWorkOrder(ctx context.Context, wo *domain.WorkOrder) error {
	return r.db.WithContext(ctx).Create(wo).Error
}

// UpdateWorkOrder 保存工单变更
func (r *GormWorkOrderRepository) UpdateWorkOrder(ctx context.Context, wo *domain.WorkOrder) error {
	return r.db.WithContext(ctx).Save(wo).Error
}

// GetByID 按内部 ID 获取工单
func (r *GormWorkOrderRepository) GetByID(ctx context.Context, id uint) (*domain.WorkOrder, error) {
	var wo domain.WorkOrder
	err := r.db.WithContext(ctx).First(&wo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("work order")
	}
	if err != nil {
		return nil, err
	}
	return &wo, nil
}

// GetByTaskID 按任务 ID 获取工单，任务号同样可检索
func (r *GormWorkOrderRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.WorkOrder, error) {
	return r.getByTaskID(ctx, r.db, taskID)
}

// GetByTaskIDForUpdate 按任务 ID 获取工单并加行锁
// sqlite 不支持 FOR UPDATE，且其写入本身整库串行，跳过锁子句
func (r *GormWorkOrderRepository) GetByTaskIDForUpdate(ctx context.Context, taskID string) (*domain.WorkOrder, error) {
	db := r.db
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.getByTaskID(ctx, db, taskID)
}

func (r *GormWorkOrderRepository) getByTaskID(ctx context.Context, db *gorm.DB, taskID string) (*domain.WorkOrder, error) {
	var wo domain.WorkOrder
	err := db.WithContext(ctx).
		Where("task_id = ? OR task_number = ?", taskID, taskID).
		First(&wo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("work order")
	}
	if err != nil {
		return nil, err
	}
	return &wo, nil
}

// CreateRawData 追加原始数据快照
func (r *GormWorkOrderRepository) CreateRawData(ctx context.Context, rd *domain.RawData) error {
	return r.db.WithContext(ctx).Create(rd).Error
}

// UpdateRawData 更新快照的同步状态与响应
func (r *GormWorkOrderRepository) UpdateRawData(ctx context.Context, rd *domain.RawData) error {
	return r.db.WithContext(ctx).Save(rd).Error
}

// ListRawData 获取工单快照历史，最新的在前
func (r *GormWorkOrderRepository) ListRawData(ctx context.Context, workOrderID uint) ([]*domain.RawData, error) {
	var rds []*domain.RawData
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("id desc").
		Find(&rds).Error
	return rds, err
}

// SaveBusinessData 按工单 upsert 业务数据投影
func (r *GormWorkOrderRepository) SaveBusinessData(ctx context.Context, bd *domain.BusinessData) error {
	return pkgdb.UpsertWithConflict(ctx, r.db, bd,
		[]string{"work_order_id"},
		[]string{
			"account_name", "currency_code", "timezone", "product_type",
			"recharge_amount", "promotion_links", "application_status",
			"failure_reason", "updated_at",
		})
}

// GetBusinessData 获取工单的业务数据投影
func (r *GormWorkOrderRepository) GetBusinessData(ctx context.Context, workOrderID uint) (*domain.BusinessData, error) {
	var bd domain.BusinessData
	err := r.db.WithContext(ctx).Where("work_order_id = ?", workOrderID).First(&bd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("business data")
	}
	if err != nil {
		return nil, err
	}
	return &bd, nil
}

// CreateCompanyInfo 写入公司信息快照，附件随主记录级联创建
func (r *GormWorkOrderRepository) CreateCompanyInfo(ctx context.Context, ci *domain.CompanyInfo) error {
	return r.db.WithContext(ctx).Create(ci).Error
}

// SaveCompanyInfo 按工单替换公司信息快照
// work_order_id 上有唯一索引，旧快照连同附件物理删除后重建，避免软删除残留占住索引
func (r *GormWorkOrderRepository) SaveCompanyInfo(ctx context.Context, ci *domain.CompanyInfo) error {
	var existing domain.CompanyInfo
	err := r.db.WithContext(ctx).Where("work_order_id = ?", ci.WorkOrderID).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		if err := r.db.WithContext(ctx).Unscoped().
			Where("company_info_id = ?", existing.ID).
			Delete(&domain.Attachment{}).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Unscoped().Delete(&existing).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(ci).Error
}

// GetCompanyInfo 获取工单的公司信息快照及附件
func (r *GormWorkOrderRepository) GetCompanyInfo(ctx context.Context, workOrderID uint) (*domain.CompanyInfo, error) {
	var ci domain.CompanyInfo
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("work_order_id = ?", workOrderID).
		First(&ci).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("company info")
	}
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// List 分页查询工单，逐行挂接业务数据投影
func (r *GormWorkOrderRepository) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.WorkOrderListRow, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.WorkOrder{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Subtype != "" {
		query = query.Where("subtype = ?", filter.Subtype)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where(
			"task_number LIKE ? OR task_id LIKE ? OR id IN (?)",
			like, like,
			r.db.Model(&domain.BusinessData{}).Select("work_order_id").Where("account_name LIKE ?", like),
		)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*domain.WorkOrder
	if err := query.Order("id desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]*domain.WorkOrderListRow, 0, len(orders))
	if len(orders) == 0 {
		return rows, total, nil
	}

	ids := make([]uint, 0, len(orders))
	for _, wo := range orders {
		ids = append(ids, wo.ID)
	}
	var bds []*domain.BusinessData
	if err := r.db.WithContext(ctx).Where("work_order_id IN ?", ids).Find(&bds).Error; err != nil {
		return nil, 0, err
	}
	bdByWorkOrder := make(map[uint]*domain.BusinessData, len(bds))
	for _, bd := range bds {
		bdByWorkOrder[bd.WorkOrderID] = bd
	}

	for _, wo := range orders {
		rows = append(rows, &domain.WorkOrderListRow{WorkOrder: wo, BusinessData: bdByWorkOrder[wo.ID]})
	}
	return rows, total, nil
}

// CountByStatus 按状态统计工单数
func (r *GormWorkOrderRepository) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.WorkOrder{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// GormAuditLogRepository 审计日志仓储的 GORM 实现，只追加
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository 创建审计日志仓储
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append 追加审计条目
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByEntity 按实体与时间范围查询，按时间正序
func (r *GormAuditLogRepository) ListByEntity(ctx context.Context, entityType string, entityID uint, from, to *time.Time) ([]*domain.AuditLogEntry, error) {
	query := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if from != nil {
		query = query.Where("created_at >= ?", from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", to)
	}

	var entries []*domain.AuditLogEntry
	err := query.Order("id asc").Find(&entries).Error
	return entries, err
}

// GormUserCompanyInfoRepository 用户公司信息模板仓储的 GORM 实现
type GormUserCompanyInfoRepository struct {
	db *gorm.DB
}

// NewGormUserCompanyInfoRepository 创建模板仓储
func NewGormUserCompanyInfoRepository(db *gorm.DB) *GormUserCompanyInfoRepository {
	return &GormUserCompanyInfoRepository{db: db}
}

// GetByID 获取模板
func (r *GormUserCompanyInfoRepository) GetByID(ctx context.Context, id uint) (*domain.UserCompanyInfo, error) {
	var info domain.UserCompanyInfo
	err := r.db.WithContext(ctx).First(&info, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("saved company info")
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}
