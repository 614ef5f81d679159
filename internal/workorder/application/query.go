package application

import (
	"context"
	"strconv"
	"time"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/cache"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
	"github.com/jqjjian/ad-workflow-sub001/pkg/metrics"
	"github.com/jqjjian/ad-workflow-sub001/pkg/utils"
)

// pendingCountCacheKey 待审数量缓存键
const pendingCountCacheKey = "workorder:pending_count"

// pendingCountTTL 待审数量缓存时长，看板场景允许短暂滞后
const pendingCountTTL = 30 * time.Second

// ListQuery 工单列表查询
type ListQuery struct {
	Status   string
	Type     string
	Subtype  string
	UserID   string
	Keyword  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// ListResult 列表查询结果
type ListResult struct {
	Items      []WorkOrderDTO `json:"items"`
	Total      int64          `json:"total"`
	PageNumber int            `json:"pageNumber"`
	PageSize   int            `json:"pageSize"`
}

// WorkOrderQueryService 工单读路径服务
type WorkOrderQueryService struct {
	repo      domain.WorkOrderRepository
	auditRepo domain.AuditLogRepository
	cache     *cache.RedisCache
	metrics   *metrics.Metrics
}

// NewWorkOrderQueryService 创建查询服务，cache 可为 nil（降级为直查数据库）
func NewWorkOrderQueryService(repo domain.WorkOrderRepository, auditRepo domain.AuditLogRepository, c *cache.RedisCache, m *metrics.Metrics) *WorkOrderQueryService {
	return &WorkOrderQueryService{repo: repo, auditRepo: auditRepo, cache: c, metrics: m}
}

// List 分页查询工单列表
// 非审核角色只能看到自己提交的工单
func (s *WorkOrderQueryService) List(ctx context.Context, session *domain.Session, q ListQuery) (*ListResult, error) {
	filter := domain.ListFilter{
		Status:   domain.Status(q.Status),
		Type:     domain.WorkOrderType(q.Type),
		Subtype:  domain.WorkOrderSubtype(q.Subtype),
		UserID:   q.UserID,
		Keyword:  q.Keyword,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	}
	if !session.IsReviewer() {
		filter.UserID = session.UserID
	}

	pagination := utils.NewPagination(q.Page, q.PageSize, 0)
	rows, total, err := s.repo.List(ctx, filter, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}

	items := make([]WorkOrderDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toWorkOrderDTO(row.WorkOrder, row.BusinessData))
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		PageNumber: pagination.Page,
		PageSize:   pagination.PageSize,
	}, nil
}

// GetDetail 获取工单详情：主体、业务投影、公司信息快照与全部原始数据历史
func (s *WorkOrderQueryService) GetDetail(ctx context.Context, session *domain.Session, taskID string) (*WorkOrderDetailDTO, error) {
	wo, err := s.repo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !session.IsReviewer() && wo.UserID != session.UserID {
		return nil, domain.NewError(domain.CodeForbidden, "work order belongs to another user")
	}

	detail := &WorkOrderDetailDTO{Metadata: wo.MetadataMap()}

	bd, err := s.repo.GetBusinessData(ctx, wo.ID)
	if err != nil && domain.CodeOf(err) != domain.CodeNotFound {
		return nil, err
	}
	detail.WorkOrderDTO = toWorkOrderDTO(wo, bd)
	detail.BusinessData = bd

	if ci, err := s.repo.GetCompanyInfo(ctx, wo.ID); err == nil {
		detail.CompanyInfo = ci
	} else if domain.CodeOf(err) != domain.CodeNotFound {
		return nil, err
	}

	rds, err := s.repo.ListRawData(ctx, wo.ID)
	if err != nil {
		return nil, err
	}
	for _, rd := range rds {
		detail.RawDataList = append(detail.RawDataList, toRawDataDTO(rd))
	}

	return detail, nil
}

// AuditTrail 查询工单审计轨迹
func (s *WorkOrderQueryService) AuditTrail(ctx context.Context, taskID string, from, to *time.Time) ([]AuditEntryDTO, error) {
	wo, err := s.repo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.ListByEntity(ctx, domain.EntityTypeWorkOrder, wo.ID, from, to)
	if err != nil {
		return nil, err
	}

	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, AuditEntryDTO{
			ID:          e.ID,
			Action:      string(e.Action),
			PerformedBy: e.PerformedBy,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}
	return dtos, nil
}

// PendingCount 待审工单数量，短缓存供看板轮询
func (s *WorkOrderQueryService) PendingCount(ctx context.Context) (int64, error) {
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, pendingCountCacheKey); err == nil {
			if count, err := strconv.ParseInt(v, 10, 64); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountByStatus(ctx, domain.StatusPending)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.PendingWorkOrders.Set(float64(count))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, pendingCountCacheKey, count, pendingCountTTL); err != nil {
			logger.Warn(ctx, "Failed to cache pending count", "error", err)
		}
	}
	return count, nil
}
