// Package application 实现工单编排：校验、落库、第三方提交、审核与查询
package application

import (
	"encoding/json"
	"time"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
)

// CreateAccountApplicationCommand 开户申请提交命令
type CreateAccountApplicationCommand struct {
	// 平台子类型（GOOGLE_ACCOUNT / FACEBOOK_ACCOUNT / TIKTOK_ACCOUNT）
	Subtype domain.WorkOrderSubtype
	// 提交会话
	Session *domain.Session
	// 弱类型入参
	Input *validation.AccountApplicationInput
}

// CreateFundingCommand 资金操作提交命令
type CreateFundingCommand struct {
	// 操作子类型（DEPOSIT / WITHDRAWAL / TRANSFER / ZEROING / BIND_ACCOUNT）
	Subtype domain.WorkOrderSubtype
	// 提交会话
	Session *domain.Session
	// 弱类型入参
	Input *validation.FundingInput
}

// UpdateWorkOrderCommand 工单更新（重新提交）命令
// 载荷按工单既有子类型解释，更新不允许变更子类型
type UpdateWorkOrderCommand struct {
	// 任务 ID
	TaskID string
	// 提交会话
	Session *domain.Session
	// 原始载荷
	Payload json.RawMessage
}

// ReviewCommand 审核命令
type ReviewCommand struct {
	// 任务 ID
	TaskID string
	// 审核会话
	Session *domain.Session
	// 审核备注（approve）
	Remark string
	// 拒绝原因（reject，必填）
	Reason string
}

// CreateResult 提交结果
type CreateResult struct {
	TaskNumber string `json:"taskNumber"`
	TaskID     string `json:"taskId"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// WorkOrderDTO 工单列表/详情的展示模型
type WorkOrderDTO struct {
	ID             uint   `json:"id"`
	TaskNumber     string `json:"taskNumber"`
	TaskID         string `json:"taskId"`
	Type           string `json:"type"`
	Subtype        string `json:"subtype"`
	UserID         string `json:"userId"`
	Status         string `json:"status"`
	StatusCode     int    `json:"statusCode"`
	AccountName    string `json:"accountName,omitempty"`
	CurrencyCode   string `json:"currencyCode,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	RechargeAmount string `json:"rechargeAmount,omitempty"`
	RejectReason   string `json:"rejectReason,omitempty"`
	Remark         string `json:"remark,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// RawDataDTO 原始数据快照展示模型
type RawDataDTO struct {
	ID           uint   `json:"id"`
	RequestData  string `json:"requestData"`
	ResponseData string `json:"responseData,omitempty"`
	SyncStatus   string `json:"syncStatus"`
	SyncError    string `json:"syncError,omitempty"`
	LastSyncTime string `json:"lastSyncTime,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// WorkOrderDetailDTO 工单详情：主体 + 投影 + 快照历史 + 公司信息
type WorkOrderDetailDTO struct {
	WorkOrderDTO
	Metadata     map[string]any      `json:"metadata,omitempty"`
	BusinessData *domain.BusinessData `json:"businessData,omitempty"`
	CompanyInfo  *domain.CompanyInfo  `json:"companyInfo,omitempty"`
	RawDataList  []RawDataDTO         `json:"rawDataList,omitempty"`
}

// AuditEntryDTO 审计条目展示模型
type AuditEntryDTO struct {
	ID          uint   `json:"id"`
	Action      string `json:"action"`
	PerformedBy string `json:"performedBy"`
	NewValue    string `json:"newValue,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// toWorkOrderDTO 合并工单与业务数据投影
func toWorkOrderDTO(wo *domain.WorkOrder, bd *domain.BusinessData) WorkOrderDTO {
	dto := WorkOrderDTO{
		ID:           wo.ID,
		TaskNumber:   wo.TaskNumber,
		TaskID:       wo.TaskID,
		Type:         string(wo.Type),
		Subtype:      string(wo.Subtype),
		UserID:       wo.UserID,
		Status:       string(wo.Status),
		StatusCode:   wo.Status.Code(),
		RejectReason: wo.RejectReason,
		Remark:       wo.Remark,
		CreatedAt:    wo.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    wo.UpdatedAt.Format(time.RFC3339),
	}
	if bd != nil {
		dto.AccountName = bd.AccountName
		dto.CurrencyCode = bd.CurrencyCode
		dto.Timezone = bd.Timezone
		dto.RechargeAmount = bd.RechargeAmount
	}
	return dto
}

// toRawDataDTO 快照转展示模型
func toRawDataDTO(rd *domain.RawData) RawDataDTO {
	dto := RawDataDTO{
		ID:           rd.ID,
		RequestData:  rd.RequestData,
		ResponseData: rd.ResponseData,
		SyncStatus:   string(rd.SyncStatus),
		SyncError:    rd.SyncError,
		CreatedAt:    rd.CreatedAt.Format(time.RFC3339),
	}
	if rd.LastSyncTime != nil {
		dto.LastSyncTime = rd.LastSyncTime.Format(time.RFC3339)
	}
	return dto
}
