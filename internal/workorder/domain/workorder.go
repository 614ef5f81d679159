// Package domain 包含工单服务的领域模型
package domain

import (
	"encoding/json"

	"gorm.io/gorm"
)

// WorkOrderType 工单类型
type WorkOrderType string

const (
	WorkOrderTypeAccountApplication WorkOrderType = "ACCOUNT_APPLICATION"
	WorkOrderTypeAccountManagement  WorkOrderType = "ACCOUNT_MANAGEMENT"
)

// WorkOrderSubtype 工单子类型
type WorkOrderSubtype string

const (
	SubtypeGoogleAccount   WorkOrderSubtype = "GOOGLE_ACCOUNT"
	SubtypeFacebookAccount WorkOrderSubtype = "FACEBOOK_ACCOUNT"
	SubtypeTiktokAccount   WorkOrderSubtype = "TIKTOK_ACCOUNT"
	SubtypeDeposit         WorkOrderSubtype = "DEPOSIT"
	SubtypeWithdrawal      WorkOrderSubtype = "WITHDRAWAL"
	SubtypeTransfer        WorkOrderSubtype = "TRANSFER"
	SubtypeZeroing         WorkOrderSubtype = "ZEROING"
	SubtypeBindAccount     WorkOrderSubtype = "BIND_ACCOUNT"
)

// SubtypeSpec 子类型配置
// SubmitOnCreate 为 true 的子类型在创建时调用第三方，
// 否则在审核通过时才调用（资金类操作需人工签核后再动账）
type SubtypeSpec struct {
	// 子类型
	Subtype WorkOrderSubtype
	// 所属工单类型
	Type WorkOrderType
	// 任务号编码位
	Code string
	// 是否在创建时提交第三方
	SubmitOnCreate bool
	// 是否需要第三方提交（BIND_ACCOUNT 等纯人工流程为 false）
	RequiresGateway bool
}

// subtypeSpecs 子类型注册表
var subtypeSpecs = map[WorkOrderSubtype]SubtypeSpec{
	SubtypeGoogleAccount:   {Subtype: SubtypeGoogleAccount, Type: WorkOrderTypeAccountApplication, Code: "G", SubmitOnCreate: true, RequiresGateway: true},
	SubtypeFacebookAccount: {Subtype: SubtypeFacebookAccount, Type: WorkOrderTypeAccountApplication, Code: "F", SubmitOnCreate: true, RequiresGateway: true},
	SubtypeTiktokAccount:   {Subtype: SubtypeTiktokAccount, Type: WorkOrderTypeAccountApplication, Code: "T", SubmitOnCreate: true, RequiresGateway: true},
	SubtypeDeposit:         {Subtype: SubtypeDeposit, Type: WorkOrderTypeAccountManagement, Code: "D", SubmitOnCreate: false, RequiresGateway: true},
	SubtypeWithdrawal:      {Subtype: SubtypeWithdrawal, Type: WorkOrderTypeAccountManagement, Code: "W", SubmitOnCreate: false, RequiresGateway: true},
	SubtypeTransfer:        {Subtype: SubtypeTransfer, Type: WorkOrderTypeAccountManagement, Code: "R", SubmitOnCreate: false, RequiresGateway: true},
	SubtypeZeroing:         {Subtype: SubtypeZeroing, Type: WorkOrderTypeAccountManagement, Code: "Z", SubmitOnCreate: false, RequiresGateway: true},
	SubtypeBindAccount:     {Subtype: SubtypeBindAccount, Type: WorkOrderTypeAccountManagement, Code: "B", SubmitOnCreate: false, RequiresGateway: false},
}

// SpecFor 获取子类型配置
func SpecFor(subtype WorkOrderSubtype) (SubtypeSpec, bool) {
	spec, ok := subtypeSpecs[subtype]
	return spec, ok
}

// typePrefixes 任务号类型前缀
var typePrefixes = map[WorkOrderType]string{
	WorkOrderTypeAccountApplication: "AA",
	WorkOrderTypeAccountManagement:  "AM",
}

// WorkOrder 工单实体，状态机的主体
// 独占其 RawData 历史与 BusinessData 行；所有变更必须经由编排服务
type WorkOrder struct {
	gorm.Model
	// 任务号，人类可读业务主键，唯一索引
	TaskNumber string `gorm:"column:task_number;type:varchar(32);uniqueIndex;not null" json:"task_number"`
	// 外部系统关联 ID，初始等于任务号，第三方受理后被其返回值覆盖
	TaskID string `gorm:"column:task_id;type:varchar(64);index;not null" json:"task_id"`
	// 工单类型
	Type WorkOrderType `gorm:"column:type;type:varchar(32);index;not null" json:"type"`
	// 工单子类型
	Subtype WorkOrderSubtype `gorm:"column:subtype;type:varchar(32);index;not null" json:"subtype"`
	// 提交人
	UserID string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	// 工单状态
	Status Status `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 当前（最新）原始数据快照 ID
	RawDataID uint `gorm:"column:raw_data_id" json:"raw_data_id"`
	// 业务数据投影 ID
	BusinessDataID *uint `gorm:"column:business_data_id" json:"business_data_id,omitempty"`
	// 拒绝原因
	RejectReason string `gorm:"column:reject_reason;type:varchar(500)" json:"reject_reason,omitempty"`
	// 审核备注
	Remark string `gorm:"column:remark;type:varchar(500)" json:"remark,omitempty"`
	// 自由格式元数据（平台提示、冗余展示字段），仅作尽力而为展示，不作为业务依据
	Metadata string `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
}

// TableName 指定表名
func (WorkOrder) TableName() string {
	return "work_orders"
}

// NewWorkOrder 创建工单，初始状态固定为 PENDING
func NewWorkOrder(taskNumber string, subtype WorkOrderSubtype, userID string, metadata map[string]any) *WorkOrder {
	spec := subtypeSpecs[subtype]

	wo := &WorkOrder{
		TaskNumber: taskNumber,
		TaskID:     taskNumber,
		Type:       spec.Type,
		Subtype:    subtype,
		UserID:     userID,
		Status:     StatusPending,
	}
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			wo.Metadata = string(data)
		}
	}
	return wo
}

// TransitionTo 校验并执行状态流转
func (w *WorkOrder) TransitionTo(target Status) error {
	if !w.Status.CanTransitionTo(target) {
		return NewStatusTransitionError(w.Status, target)
	}
	w.Status = target
	return nil
}

// CanEdit 是否允许编辑（重新提交）
func (w *WorkOrder) CanEdit() bool {
	switch w.Status {
	case StatusPending, StatusReturned, StatusFailed:
		return true
	}
	return false
}

// CanReview 是否允许审核操作（approve/reject）
func (w *WorkOrder) CanReview() bool {
	return w.Status == StatusPending
}

// MetadataMap 解析元数据，缺失或损坏时返回空 map，绝不报错
func (w *WorkOrder) MetadataMap() map[string]any {
	if w.Metadata == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(w.Metadata), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}
