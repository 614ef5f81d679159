package domain

import (
	"gorm.io/gorm"
)

// BusinessData 业务数据投影，每个工单一行（upsert 语义）
// 冗余列表/检索所需字段，避免反复解析 RawData JSON；权威字段以本表为准
type BusinessData struct {
	gorm.Model
	// 所属工单，唯一索引保证一单一行
	WorkOrderID uint `gorm:"column:work_order_id;uniqueIndex;not null" json:"work_order_id"`
	// 账户名称
	AccountName string `gorm:"column:account_name;type:varchar(128);index" json:"account_name"`
	// 币种代码
	CurrencyCode string `gorm:"column:currency_code;type:varchar(10)" json:"currency_code"`
	// 时区
	Timezone string `gorm:"column:timezone;type:varchar(64)" json:"timezone"`
	// 产品类型
	ProductType int `gorm:"column:product_type" json:"product_type"`
	// 充值金额（字符串编码，避免二进制浮点误差）
	RechargeAmount string `gorm:"column:recharge_amount;type:varchar(32)" json:"recharge_amount"`
	// 推广链接（JSON 数组）
	PromotionLinks string `gorm:"column:promotion_links;type:varchar(2000)" json:"promotion_links"`
	// 申请状态（第三方侧）
	ApplicationStatus string `gorm:"column:application_status;type:varchar(32)" json:"application_status"`
	// 失败原因
	FailureReason string `gorm:"column:failure_reason;type:varchar(500)" json:"failure_reason,omitempty"`
}

// TableName 指定表名
func (BusinessData) TableName() string {
	return "work_order_business_data"
}
