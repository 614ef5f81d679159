package domain

import (
	"gorm.io/gorm"
)

// CompanyInfo 工单级公司信息快照
// 引用 UserCompanyInfo 时按提交时刻取值固化，模板后续修改不回溯历史工单
type CompanyInfo struct {
	gorm.Model
	// 所属工单
	WorkOrderID uint `gorm:"column:work_order_id;uniqueIndex;not null" json:"work_order_id"`
	// 来源模板 ID（为空表示本次手工填写）
	UserCompanyInfoID *uint `gorm:"column:user_company_info_id" json:"user_company_info_id,omitempty"`
	// 公司中文名
	CompanyNameCN string `gorm:"column:company_name_cn;type:varchar(128)" json:"company_name_cn"`
	// 公司英文名
	CompanyNameEN string `gorm:"column:company_name_en;type:varchar(128)" json:"company_name_en"`
	// 营业执照号
	BusinessLicenseNo string `gorm:"column:business_license_no;type:varchar(64)" json:"business_license_no"`
	// 法人姓名
	LegalRepName string `gorm:"column:legal_rep_name;type:varchar(64)" json:"legal_rep_name"`
	// 证件类型
	IDType int `gorm:"column:id_type" json:"id_type"`
	// 证件号码
	IDNumber string `gorm:"column:id_number;type:varchar(64)" json:"id_number"`
	// 法人手机号
	LegalRepPhone string `gorm:"column:legal_rep_phone;type:varchar(32)" json:"legal_rep_phone"`
	// 法人银行卡号
	LegalRepBankCard string `gorm:"column:legal_rep_bank_card;type:varchar(64)" json:"legal_rep_bank_card,omitempty"`
	// 附件列表
	Attachments []Attachment `gorm:"foreignKey:CompanyInfoID" json:"attachments,omitempty"`
}

// TableName 指定表名
func (CompanyInfo) TableName() string {
	return "work_order_company_infos"
}

// Attachment 公司信息附件元数据
// 文件本体由外部对象存储收纳，这里只保存元数据与 URL
type Attachment struct {
	gorm.Model
	// 所属公司信息
	CompanyInfoID uint `gorm:"column:company_info_id;index;not null" json:"company_info_id"`
	// 文件名
	FileName string `gorm:"column:file_name;type:varchar(255);not null" json:"file_name"`
	// 文件类型
	FileType string `gorm:"column:file_type;type:varchar(64)" json:"file_type"`
	// 文件大小（字节）
	FileSize int64 `gorm:"column:file_size" json:"file_size"`
	// 文件 URL
	FileURL string `gorm:"column:file_url;type:varchar(500);not null" json:"file_url"`
	// 描述
	Description string `gorm:"column:description;type:varchar(255)" json:"description,omitempty"`
}

// TableName 指定表名
func (Attachment) TableName() string {
	return "work_order_attachments"
}

// UserCompanyInfo 用户保存的公司信息模板
type UserCompanyInfo struct {
	gorm.Model
	// 所属用户
	UserID string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	// 公司中文名
	CompanyNameCN string `gorm:"column:company_name_cn;type:varchar(128)" json:"company_name_cn"`
	// 公司英文名
	CompanyNameEN string `gorm:"column:company_name_en;type:varchar(128)" json:"company_name_en"`
	// 营业执照号
	BusinessLicenseNo string `gorm:"column:business_license_no;type:varchar(64)" json:"business_license_no"`
	// 法人姓名
	LegalRepName string `gorm:"column:legal_rep_name;type:varchar(64)" json:"legal_rep_name"`
	// 证件类型
	IDType int `gorm:"column:id_type" json:"id_type"`
	// 证件号码
	IDNumber string `gorm:"column:id_number;type:varchar(64)" json:"id_number"`
	// 法人手机号
	LegalRepPhone string `gorm:"column:legal_rep_phone;type:varchar(32)" json:"legal_rep_phone"`
	// 法人银行卡号
	LegalRepBankCard string `gorm:"column:legal_rep_bank_card;type:varchar(64)" json:"legal_rep_bank_card,omitempty"`
	// 是否默认模板
	IsDefault bool `gorm:"column:is_default;default:false" json:"is_default"`
}

// TableName 指定表名
func (UserCompanyInfo) TableName() string {
	return "user_company_infos"
}

// SnapshotFor 从模板固化一份工单级快照
func (u *UserCompanyInfo) SnapshotFor(workOrderID uint) *CompanyInfo {
	id := u.ID
	return &CompanyInfo{
		WorkOrderID:       workOrderID,
		UserCompanyInfoID: &id,
		CompanyNameCN:     u.CompanyNameCN,
		CompanyNameEN:     u.CompanyNameEN,
		BusinessLicenseNo: u.BusinessLicenseNo,
		LegalRepName:      u.LegalRepName,
		IDType:            u.IDType,
		IDNumber:          u.IDNumber,
		LegalRepPhone:     u.LegalRepPhone,
		LegalRepBankCard:  u.LegalRepBankCard,
	}
}
