package domain

import (
	"time"

	"gorm.io/gorm"
)

// SyncStatus 第三方同步状态
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// RawData 原始数据快照，每次提交/重新提交各生成一行，只追加不改写
// 内容一经写入不可变，仅允许网关调用返回后更新同步状态与响应
type RawData struct {
	gorm.Model
	// 所属工单
	WorkOrderID uint `gorm:"column:work_order_id;index;not null" json:"work_order_id"`
	// 发送给第三方的完整请求载荷（含内嵌公司信息）
	RequestData string `gorm:"column:request_data;type:text;not null" json:"request_data"`
	// 第三方返回的完整响应原文
	ResponseData string `gorm:"column:response_data;type:text" json:"response_data,omitempty"`
	// 同步状态
	SyncStatus SyncStatus `gorm:"column:sync_status;type:varchar(20);index;not null;default:'PENDING'" json:"sync_status"`
	// 同步失败原因
	SyncError string `gorm:"column:sync_error;type:text" json:"sync_error,omitempty"`
	// 最近一次同步时间
	LastSyncTime *time.Time `gorm:"column:last_sync_time" json:"last_sync_time,omitempty"`
}

// TableName 指定表名
func (RawData) TableName() string {
	return "work_order_raw_data"
}

// MarkSynced 记录网关调用结果
func (r *RawData) MarkSynced(status SyncStatus, responseData, syncError string) {
	now := time.Now()
	r.SyncStatus = status
	r.ResponseData = responseData
	r.SyncError = syncError
	r.LastSyncTime = &now
}
