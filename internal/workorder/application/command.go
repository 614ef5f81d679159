package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
	"github.com/jqjjian/ad-workflow-sub001/pkg/metrics"
)

// WorkOrderCommandService 工单写路径编排服务
// 每次提交/更新在单个数据库事务内完成工单、快照、投影与公司信息的全部写入；
// 需要创建即提交的子类型，网关调用也在事务范围内，失败结果与工单状态同事务落库
type WorkOrderCommandService struct {
	repo             domain.WorkOrderRepository
	userCompanyRepo  domain.UserCompanyInfoRepository
	gateway          domain.Gateway
	auditor          *AuditRecorder
	accountValidator *validation.AccountValidator
	fundingValidator *validation.FundingValidator
	opts             validation.Options
	metrics          *metrics.Metrics
}

// NewWorkOrderCommandService 创建工单命令服务
func NewWorkOrderCommandService(
	repo domain.WorkOrderRepository,
	userCompanyRepo domain.UserCompanyInfoRepository,
	gateway domain.Gateway,
	auditor *AuditRecorder,
	accountValidator *validation.AccountValidator,
	fundingValidator *validation.FundingValidator,
	opts validation.Options,
	m *metrics.Metrics,
) *WorkOrderCommandService {
	return &WorkOrderCommandService{
		repo:             repo,
		userCompanyRepo:  userCompanyRepo,
		gateway:          gateway,
		auditor:          auditor,
		accountValidator: accountValidator,
		fundingValidator: fundingValidator,
		opts:             opts,
		metrics:          m,
	}
}

// SubmitAccountApplication 提交开户申请
// 开户类子类型在创建时即调用第三方：受理成功进入 PROCESSING，失败进入 FAILED（可编辑重提）
func (s *WorkOrderCommandService) SubmitAccountApplication(ctx context.Context, cmd CreateAccountApplicationCommand) (*CreateResult, error) {
	spec, ok := domain.SpecFor(cmd.Subtype)
	if !ok || spec.Type != domain.WorkOrderTypeAccountApplication {
		return nil, domain.NewError(domain.CodeValidation, "unsupported account application subtype")
	}

	app, err := s.accountValidator.Validate(ctx, cmd.Subtype, cmd.Input, s.opts)
	if err != nil {
		return nil, domain.WrapError(domain.CodeValidation, err.Error(), err)
	}

	companyInfo, err := s.resolveCompanyInfo(ctx, cmd.Session, app.CompanyInfo)
	if err != nil {
		return nil, err
	}

	taskNumber := domain.GenerateTaskNumber(cmd.Subtype)
	wo := domain.NewWorkOrder(taskNumber, cmd.Subtype, cmd.Session.UserID, nil)
	wo.Remark = app.Remark

	requestData, err := buildAccountRequest(taskNumber, cmd.Subtype, app, companyInfo)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "failed to encode request payload", err)
	}

	err = s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		if err := repo.CreateWorkOrder(ctx, wo); err != nil {
			return err
		}

		rd := &domain.RawData{WorkOrderID: wo.ID, RequestData: requestData, SyncStatus: domain.SyncStatusPending}
		if err := repo.CreateRawData(ctx, rd); err != nil {
			return err
		}
		wo.RawDataID = rd.ID

		bd := accountBusinessData(wo.ID, app)
		if err := repo.SaveBusinessData(ctx, bd); err != nil {
			return err
		}
		wo.BusinessDataID = &bd.ID

		if companyInfo != nil {
			companyInfo.WorkOrderID = wo.ID
			if err := repo.CreateCompanyInfo(ctx, companyInfo); err != nil {
				return err
			}
		}

		if spec.SubmitOnCreate {
			if err := s.submitToGateway(ctx, repo, wo, rd, domain.EndpointAccountApplication); err != nil {
				return err
			}
		}

		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, wo, cmd.Session)
	if wo.TaskID != wo.TaskNumber {
		s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionUpdateExternalTaskID, "system", wo.TaskID))
	}
	return &CreateResult{TaskNumber: wo.TaskNumber, TaskID: wo.TaskID, Status: string(wo.Status), StatusCode: wo.Status.Code()}, nil
}

// SubmitFunding 提交资金操作
// 资金类子类型创建后停留在 PENDING，由审核通过动作触发第三方调用
func (s *WorkOrderCommandService) SubmitFunding(ctx context.Context, cmd CreateFundingCommand) (*CreateResult, error) {
	spec, ok := domain.SpecFor(cmd.Subtype)
	if !ok || spec.Type != domain.WorkOrderTypeAccountManagement {
		return nil, domain.NewError(domain.CodeValidation, "unsupported funding operation subtype")
	}

	op, err := s.fundingValidator.Validate(cmd.Subtype, cmd.Input)
	if err != nil {
		return nil, domain.WrapError(domain.CodeValidation, err.Error(), err)
	}

	taskNumber := domain.GenerateTaskNumber(cmd.Subtype)
	wo := domain.NewWorkOrder(taskNumber, cmd.Subtype, cmd.Session.UserID, nil)
	wo.Remark = op.Remark

	requestData, err := buildFundingRequest(taskNumber, cmd.Subtype, op)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "failed to encode request payload", err)
	}

	err = s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		if err := repo.CreateWorkOrder(ctx, wo); err != nil {
			return err
		}

		rd := &domain.RawData{WorkOrderID: wo.ID, RequestData: requestData, SyncStatus: domain.SyncStatusPending}
		if err := repo.CreateRawData(ctx, rd); err != nil {
			return err
		}
		wo.RawDataID = rd.ID

		bd := fundingBusinessData(wo.ID, op)
		if err := repo.SaveBusinessData(ctx, bd); err != nil {
			return err
		}
		wo.BusinessDataID = &bd.ID

		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, wo, cmd.Session)
	return &CreateResult{TaskNumber: wo.TaskNumber, TaskID: wo.TaskID, Status: string(wo.Status), StatusCode: wo.Status.Code()}, nil
}

// Update 更新（重新提交）工单
// 仅 PENDING / RETURNED / FAILED 可编辑；追加新 RawData 快照，投影按工单 upsert，状态重置为 PENDING
func (s *WorkOrderCommandService) Update(ctx context.Context, cmd UpdateWorkOrderCommand) (*CreateResult, error) {
	var wo *domain.WorkOrder

	err := s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		var err error
		wo, err = repo.GetByTaskIDForUpdate(ctx, cmd.TaskID)
		if err != nil {
			return err
		}
		if wo.UserID != cmd.Session.UserID && cmd.Session.Role != "admin" {
			return domain.NewError(domain.CodeForbidden, "work order belongs to another user")
		}
		if !wo.CanEdit() {
			return domain.NewStatusNotEditableError(wo.Status)
		}

		var requestData string
		var bd *domain.BusinessData
		var companyInfo *domain.CompanyInfo

		spec, _ := domain.SpecFor(wo.Subtype)
		switch spec.Type {
		case domain.WorkOrderTypeAccountApplication:
			var input validation.AccountApplicationInput
			if err := json.Unmarshal(cmd.Payload, &input); err != nil {
				return domain.WrapError(domain.CodeValidation, "malformed request payload", err)
			}
			app, err := s.accountValidator.Validate(ctx, wo.Subtype, &input, s.opts)
			if err != nil {
				return domain.WrapError(domain.CodeValidation, err.Error(), err)
			}
			if companyInfo, err = s.resolveCompanyInfo(ctx, cmd.Session, app.CompanyInfo); err != nil {
				return err
			}
			if requestData, err = buildAccountRequest(wo.TaskNumber, wo.Subtype, app, companyInfo); err != nil {
				return domain.WrapError(domain.CodeInternal, "failed to encode request payload", err)
			}
			bd = accountBusinessData(wo.ID, app)
		case domain.WorkOrderTypeAccountManagement:
			var input validation.FundingInput
			if err := json.Unmarshal(cmd.Payload, &input); err != nil {
				return domain.WrapError(domain.CodeValidation, "malformed request payload", err)
			}
			op, err := s.fundingValidator.Validate(wo.Subtype, &input)
			if err != nil {
				return domain.WrapError(domain.CodeValidation, err.Error(), err)
			}
			if requestData, err = buildFundingRequest(wo.TaskNumber, wo.Subtype, op); err != nil {
				return domain.WrapError(domain.CodeInternal, "failed to encode request payload", err)
			}
			bd = fundingBusinessData(wo.ID, op)
		}

		rd := &domain.RawData{WorkOrderID: wo.ID, RequestData: requestData, SyncStatus: domain.SyncStatusPending}
		if err := repo.CreateRawData(ctx, rd); err != nil {
			return err
		}
		wo.RawDataID = rd.ID

		if err := repo.SaveBusinessData(ctx, bd); err != nil {
			return err
		}

		// 重提携带公司信息时同步刷新落库快照，与本次实际发送内容一致
		if companyInfo != nil {
			companyInfo.WorkOrderID = wo.ID
			if err := repo.SaveCompanyInfo(ctx, companyInfo); err != nil {
				return err
			}
		}

		if wo.Status != domain.StatusPending {
			from := wo.Status
			if err := wo.TransitionTo(domain.StatusPending); err != nil {
				return err
			}
			s.observeTransition(from, domain.StatusPending)
		}

		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionUpdate, cmd.Session.UserID, snapshotJSON(wo)))
	return &CreateResult{TaskNumber: wo.TaskNumber, TaskID: wo.TaskID, Status: string(wo.Status), StatusCode: wo.Status.Code()}, nil
}

// Cancel 取消工单，仅提交人对 PENDING 工单可用
func (s *WorkOrderCommandService) Cancel(ctx context.Context, taskID string, session *domain.Session) error {
	var wo *domain.WorkOrder

	err := s.repo.Transaction(ctx, func(repo domain.WorkOrderRepository) error {
		var err error
		wo, err = repo.GetByTaskIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if wo.UserID != session.UserID && session.Role != "admin" {
			return domain.NewError(domain.CodeForbidden, "work order belongs to another user")
		}
		from := wo.Status
		if err := wo.TransitionTo(domain.StatusCanceled); err != nil {
			return err
		}
		s.observeTransition(from, domain.StatusCanceled)
		return repo.UpdateWorkOrder(ctx, wo)
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionUpdate, session.UserID, snapshotJSON(wo)))
	return nil
}

// submitToGateway 调用第三方并将结果同事务落库
// 受理成功：工单进入 PROCESSING，外部任务 ID 覆盖 TaskID；
// 失败或响应畸形：工单进入 FAILED，原文与失败原因保留在快照上
func (s *WorkOrderCommandService) submitToGateway(ctx context.Context, repo domain.WorkOrderRepository, wo *domain.WorkOrder, rd *domain.RawData, endpoint domain.GatewayEndpoint) error {
	start := time.Now()
	result, err := s.gateway.Submit(ctx, endpoint, domain.GenerateTraceID(), json.RawMessage(rd.RequestData))
	if err != nil {
		return domain.WrapError(domain.CodeInternal, "gateway submit failed", err)
	}
	s.observeGateway(endpoint, result.Outcome, time.Since(start))

	from := wo.Status
	switch result.Outcome {
	case domain.GatewayOutcomeSuccess:
		rd.MarkSynced(domain.SyncStatusSuccess, result.RawResponse, "")
		if err := wo.TransitionTo(domain.StatusProcessing); err != nil {
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
	s.observeTransition(from, wo.Status)

	return repo.UpdateRawData(ctx, rd)
}

// resolveCompanyInfo 解析公司信息：引用模板时做归属校验并固化快照
func (s *WorkOrderCommandService) resolveCompanyInfo(ctx context.Context, session *domain.Session, in *validation.CompanyInfoInput) (*domain.CompanyInfo, error) {
	if in == nil {
		return nil, nil
	}
	if in.UserCompanyInfoID == nil {
		return companyInfoFromInput(0, in), nil
	}

	tpl, err := s.userCompanyRepo.GetByID(ctx, *in.UserCompanyInfoID)
	if err != nil {
		return nil, err
	}
	if tpl.UserID != session.UserID {
		return nil, domain.NewError(domain.CodeForbidden, "saved company info belongs to another user")
	}
	return tpl.SnapshotFor(0), nil
}

// recordCreated 创建后统计与审计
func (s *WorkOrderCommandService) recordCreated(ctx context.Context, wo *domain.WorkOrder, session *domain.Session) {
	if s.metrics != nil {
		s.metrics.WorkOrdersTotal.WithLabelValues(string(wo.Type), string(wo.Subtype)).Inc()
	}
	logger.Info(ctx, "Work order created",
		"task_number", wo.TaskNumber,
		"subtype", wo.Subtype,
		"status", wo.Status,
		"user_id", wo.UserID,
	)
	s.auditor.Record(ctx, domain.NewAuditLogEntry(wo.ID, domain.AuditActionCreate, session.UserID, snapshotJSON(wo)))
}

// observeTransition 状态流转统计
func (s *WorkOrderCommandService) observeTransition(from, to domain.Status) {
	if s.metrics != nil {
		s.metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}
}

// observeGateway 网关调用统计
func (s *WorkOrderCommandService) observeGateway(endpoint domain.GatewayEndpoint, outcome domain.GatewayOutcome, d time.Duration) {
	if s.metrics != nil {
		s.metrics.GatewayRequestsTotal.WithLabelValues(string(endpoint), string(outcome)).Inc()
		s.metrics.GatewayRequestDuration.WithLabelValues(string(endpoint)).Observe(d.Seconds())
	}
}

// snapshotJSON 审计用关键字段快照
func snapshotJSON(wo *domain.WorkOrder) string {
	data, _ := json.Marshal(map[string]any{
		"taskNumber": wo.TaskNumber,
		"taskId":     wo.TaskID,
		"status":     wo.Status,
		"subtype":    wo.Subtype,
	})
	return string(data)
}
