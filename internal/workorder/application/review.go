package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
	"github.com/jqjjian/ad-workflow-sub001/pkg/metrics"
)

// ReviewService 审核服务
// 资金类工单在审核通过时才调用第三方动账；审核人不得审核自己提交的工单
type ReviewService struct {
	repo    domain.WorkOrderRepository
	gateway domain.Gateway
	auditor *AuditRecorder
	metrics *metrics.Metrics
}

// NewReviewService 创建审核服务
func NewReviewService(repo domain.WorkOrderRepository, gateway domain.Gateway, auditor *AuditRecorder, m *metrics.Metrics) *ReviewService {
	return &ReviewService{repo: repo, gateway: gateway, auditor: auditor, metrics: m}
}

// Approve 审核通过
// 需要第三方提交的资金类子类型：受理成功进入 APPROVED，失败进入 FAILED（可编辑重提）；
// 无需第三方的子类型（BIND_ACCOUNT）直接进入 APPROVED
func (s *ReviewService) Approve(ctx context.Context, cmd ReviewCommand) (*CreateResult, error) {
	if err := s.checkReviewer(cmd.Session); err != nil {
		return nil, err
	}

	var wo *domain.WorkOrder

	err := s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		var err error
		wo, err = repo.GetByTaskIDForUpdate(ctx, cmd.TaskID)
		if err != nil {
			return err
		}
		if wo.UserID == cmd.Session.UserID {
			return domain.NewError(domain.CodeForbidden, "reviewers cannot approve their own work orders")
		}
		if !wo.CanReview() {
			return domain.NewStatusTransitionError(wo.Status, domain.StatusApproved)
		}

		wo.Remark = cmd.Remark
		from := wo.Status

		spec, _ := domain.SpecFor(wo.Subtype)
		if spec.RequiresGateway && !spec.SubmitOnCreate {
			if err := s.submitFundingToGateway(ctx, repo, wo); err != nil {
				return err
			}
		} else {
			if err := wo.TransitionTo(domain.StatusApproved); err != nil {
				return err
			}
		}
		s.observeTransition(from, wo.Status)

		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionApprove, cmd.Session.UserID, snapshotJSON(wo)))
	if wo.TaskID != wo.TaskNumber {
		s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionUpdateExternalTaskID, "system", wo.TaskID))
	}
	logger.Info(ctx, "Work order reviewed",
		"task_number", wo.TaskNumber,
		"action", "approve",
		"status", wo.Status,
		"reviewer", cmd.Session.UserID,
	)
	return &CreateResult{TaskNumber: wo.TaskNumber, TaskID: wo.TaskID, Status: string(wo.Status), StatusCode: wo.Status.Code()}, nil
}

// Reject 审核拒绝，拒绝原因必填
func (s *ReviewService) Reject(ctx context.Context, cmd ReviewCommand) (*CreateResult, error) {
	if err := s.checkReviewer(cmd.Session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, domain.NewError(domain.CodeValidation, "reject reason is required")
	}

	var wo *domain.WorkOrder

	err := s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		var err error
		wo, err = repo.GetByTaskIDForUpdate(ctx, cmd.TaskID)
		if err != nil {
			return err
		}
		if wo.UserID == cmd.Session.UserID {
			return domain.NewError(domain.CodeForbidden, "reviewers cannot reject their own work orders")
		}
		if !wo.CanReview() {
			return domain.NewStatusTransitionError(wo.Status, domain.StatusRejected)
		}

		from := wo.Status
		if err := wo.TransitionTo(domain.StatusRejected); err != nil {
			return err
		}
		wo.RejectReason = cmd.Reason
		s.observeTransition(from, domain.StatusRejected)

		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionReject, cmd.Session.UserID, snapshotJSON(wo)))
	logger.Info(ctx, "Work order reviewed",
		"task_number", wo.TaskNumber,
		"action", "reject",
		"reviewer", cmd.Session.UserID,
	)
	return &CreateResult{TaskNumber: wo.TaskNumber, TaskID: wo.TaskID, Status: string(wo.Status), StatusCode: wo.Status.Code()}, nil
}

// Return 退回修改，退回原因必填
// 工单进入 RETURNED，提交人修正后通过 update 重新回到 PENDING
func (s *ReviewService) Return(ctx context.Context, cmd ReviewCommand) (*CreateResult, error) {
	if err := s.checkReviewer(cmd.Session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, domain.NewError(domain.CodeValidation, "return reason is required")
	}

	var wo *domain.WorkOrder

	err := s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		var err error
		wo, err = repo.GetByTaskIDForUpdate(ctx, cmd.TaskID)
		if err != nil {
			return err
		}
		if wo.UserID == cmd.Session.UserID {
			return domain.NewError(domain.CodeForbidden, "reviewers cannot return their own work orders")
		}
		if !wo.CanReview() {
			return domain.NewStatusTransitionError(wo.Status, domain.StatusReturned)
		}

		from := wo.Status
		if err := wo.TransitionTo(domain.StatusReturned); err != nil {
			return err
		}
		wo.Remark = cmd.Reason
		s.observeTransition(from, domain.StatusReturned)

		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionReturn, cmd.Session.UserID, snapshotJSON(wo)))
	logger.Info(ctx, "Work order reviewed",
		"task_number", wo.TaskNumber,
		"action", "return",
		"reviewer", cmd.Session.UserID,
	)
	return &CreateResult{TaskNumber: wo.TaskNumber, TaskID: wo.TaskID, Status: string(wo.Status), StatusCode: wo.Status.Code()}, nil
}

// ActionsFor 返回会话对工单当前可执行的动作列表
func (s *ReviewService) ActionsFor(wo *domain.WorkOrder, session *domain.Session) []string {
	actions := make([]string, 0, 5)

	isOwner := wo.UserID == session.UserID || session.Role == "admin"
	if isOwner && wo.CanEdit() {
		actions = append(actions, "update")
	}
	if isOwner && wo.Status.CanTransitionTo(domain.StatusCanceled) {
		actions = append(actions, "cancel")
	}
	if session.IsReviewer() && wo.UserID != session.UserID && wo.CanReview() {
		actions = append(actions, "approve", "reject", "return")
	}
	return actions
}

// submitFundingToGateway 审核通过时提交资金操作到第三方，结果同事务落库
func (s *ReviewService) submitFundingToGateway(ctx context.Context, repo domain.WorkOrderRepository, wo *domain.WorkOrder) error {
	rds, err := repo.ListRawData(ctx, wo.ID)
	if err != nil {
		return err
	}
	if len(rds) == 0 {
		return domain.NewError(domain.CodeInternal, "work order has no raw data snapshot")
	}
	rd := rds[0]

	start := time.Now()
	result, err := s.gateway.Submit(ctx, domain.EndpointFunding, domain.GenerateTraceID(), json.RawMessage(rd.RequestData))
	if err != nil {
		return domain.WrapError(domain.CodeInternal, "gateway submit failed", err)
	}
	if s.metrics != nil {
		s.metrics.GatewayRequestsTotal.WithLabelValues(string(domain.EndpointFunding), string(result.Outcome)).Inc()
		s.metrics.GatewayRequestDuration.WithLabelValues(string(domain.EndpointFunding)).Observe(time.Since(start).Seconds())
	}

	switch result.Outcome {
	case domain.GatewayOutcomeSuccess:
		rd.MarkSynced(domain.SyncStatusSuccess, result.RawResponse, "")
		if err := wo.TransitionTo(domain.StatusApproved); err != nil {
			return err
		}
		if result.ExternalTaskID != "" {
			wo.TaskID = result.ExternalTaskID
		}
	default:
		errMsg := result.ErrorMessage
		if errMsg == "" {
			errMsg = string(result.Outcome)
		}
		rd.MarkSynced(domain.SyncStatusFailed, result.RawResponse, errMsg)
		if err := wo.TransitionTo(domain.StatusFailed); err != nil {
			return err
		}
	}

	return repo.UpdateRawData(ctx, rd)
}

// checkReviewer 审核权限检查
func (s *ReviewService) checkReviewer(session *domain.Session) error {
	if session == nil {
		return domain.NewError(domain.CodeUnauthorized, "login required")
	}
	if !session.IsReviewer() {
		return domain.NewError(domain.CodeForbidden, "reviewer role required")
	}
	return nil
}

// observeTransition 状态流转统计
func (s *ReviewService) observeTransition(from, to domain.Status) {
	if s.metrics != nil && from != to {
		s.metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}
}
