package application

import (
	"encoding/json"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
)

// accountRequestPayload 发送给第三方的开户申请载荷
// 公司信息内嵌在载荷中随单提交，与工单级快照内容一致
type accountRequestPayload struct {
	TaskNumber           string                          `json:"taskNumber"`
	MediaPlatform        int                             `json:"mediaPlatform"`
	Name                 string                          `json:"name"`
	CurrencyCode         string                          `json:"currencyCode"`
	Timezone             string                          `json:"timezone"`
	ProductType          int                             `json:"productType"`
	RechargeAmount       string                          `json:"rechargeAmount,omitempty"`
	PromotionLinks       []string                        `json:"promotionLinks"`
	Auths                []validation.AuthEntry          `json:"auths,omitempty"`
	AdvertisingCountries []string                        `json:"advertisingCountries,omitempty"`
	RegistrationDetails  *validation.RegistrationDetails `json:"registrationDetails,omitempty"`
	CompanyInfo          *domain.CompanyInfo             `json:"companyInfo,omitempty"`
}

// fundingRequestPayload 发送给第三方的资金操作载荷
type fundingRequestPayload struct {
	TaskNumber      string `json:"taskNumber"`
	OperationType   string `json:"operationType"`
	MediaAccountID  string `json:"mediaAccountId"`
	MediaPlatform   int    `json:"mediaPlatform"`
	Amount          string `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	TargetAccountID string `json:"targetAccountId,omitempty"`
	Remark          string `json:"remark,omitempty"`
}

// mediaPlatformCodes 平台数字编码（第三方侧方言）
var mediaPlatformCodes = map[domain.WorkOrderSubtype]int{
	domain.SubtypeFacebookAccount: 1,
	domain.SubtypeGoogleAccount:   2,
	domain.SubtypeTiktokAccount:   5,
}

// buildAccountRequest 组装开户申请请求载荷
func buildAccountRequest(taskNumber string, subtype domain.WorkOrderSubtype, app *validation.AccountApplication, ci *domain.CompanyInfo) (string, error) {
	payload := &accountRequestPayload{
		TaskNumber:           taskNumber,
		MediaPlatform:        mediaPlatformCodes[subtype],
		Name:                 app.Name,
		CurrencyCode:         app.CurrencyCode,
		Timezone:             app.Timezone,
		ProductType:          app.ProductType,
		RechargeAmount:       app.RechargeAmount,
		PromotionLinks:       app.PromotionLinks,
		Auths:                app.Auths,
		AdvertisingCountries: app.AdvertisingCountries,
		RegistrationDetails:  app.RegistrationDetails,
		CompanyInfo:          ci,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildFundingRequest 组装资金操作请求载荷
func buildFundingRequest(taskNumber string, subtype domain.WorkOrderSubtype, op *validation.FundingOperation) (string, error) {
	payload := &fundingRequestPayload{
		TaskNumber:      taskNumber,
		OperationType:   string(subtype),
		MediaAccountID:  op.MediaAccountID,
		MediaPlatform:   op.MediaPlatform,
		Amount:          op.AmountRaw,
		Currency:        op.Currency,
		TargetAccountID: op.TargetAccountID,
		Remark:          op.Remark,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// accountBusinessData 从开户申请生成业务数据投影
func accountBusinessData(workOrderID uint, app *validation.AccountApplication) *domain.BusinessData {
	links, _ := json.Marshal(app.PromotionLinks)
	return &domain.BusinessData{
		WorkOrderID:    workOrderID,
		AccountName:    app.Name,
		CurrencyCode:   app.CurrencyCode,
		Timezone:       app.Timezone,
		ProductType:    app.ProductType,
		RechargeAmount: app.RechargeAmount,
		PromotionLinks: string(links),
	}
}

// fundingBusinessData 从资金操作生成业务数据投影
func fundingBusinessData(workOrderID uint, op *validation.FundingOperation) *domain.BusinessData {
	return &domain.BusinessData{
		WorkOrderID:    workOrderID,
		AccountName:    op.MediaAccountID,
		CurrencyCode:   op.Currency,
		RechargeAmount: op.AmountRaw,
	}
}

// companyInfoFromInput 手工填写的公司信息转工单级快照
func companyInfoFromInput(workOrderID uint, in *validation.CompanyInfoInput) *domain.CompanyInfo {
	ci := &domain.CompanyInfo{
		WorkOrderID:       workOrderID,
		CompanyNameCN:     in.CompanyNameCN,
		CompanyNameEN:     in.CompanyNameEN,
		BusinessLicenseNo: in.BusinessLicenseNo,
		LegalRepName:      in.LegalRepName,
		IDType:            in.IDType,
		IDNumber:          in.IDNumber,
		LegalRepPhone:     in.LegalRepPhone,
		LegalRepBankCard:  in.LegalRepBankCard,
	}
	for _, att := range in.Attachments {
		ci.Attachments = append(ci.Attachments, domain.Attachment{
			FileName:    att.FileName,
			FileType:    att.FileType,
			FileSize:    att.FileSize,
			FileURL:     att.FileURL,
			Description: att.Description,
		})
	}
	return ci
}
