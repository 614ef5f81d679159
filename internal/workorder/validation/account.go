package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
)

// RegistrationDetails 开户注册信息（Google / TikTok 结构化注册字段）
type RegistrationDetails struct {
	CompanyNameEN  string `json:"companyNameEN"`
	LegalRepName   string `json:"legalRepName"`
	IDType         int    `json:"idType"`
	IDNumber       string `json:"idNumber"`
	LegalRepPhone  string `json:"legalRepPhone"`
	LegalRepBankNo string `json:"legalRepBankCard"`
}

// CompanyInfoInput 工单随附的公司信息：
// 引用已保存模板（userCompanyInfoId）或完整提交一份新信息，二选一
type CompanyInfoInput struct {
	UserCompanyInfoID  *uint             `json:"userCompanyInfoId"`
	CompanyNameCN      string            `json:"companyNameCN"`
	CompanyNameEN      string            `json:"companyNameEN"`
	BusinessLicenseNo  string            `json:"businessLicenseNo"`
	LegalRepName       string            `json:"legalRepName"`
	IDType             int               `json:"idType"`
	IDNumber           string            `json:"idNumber"`
	LegalRepPhone      string            `json:"legalRepPhone"`
	LegalRepBankCard   string            `json:"legalRepBankCard"`
	Location           int               `json:"location"`
	Attachments        []AttachmentInput `json:"attachments"`
}

// AttachmentInput 附件元数据
type AttachmentInput struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileSize    int64  `json:"fileSize"`
	FileURL     string `json:"fileUrl"`
	Description string `json:"description"`
}

// AccountApplicationInput 开户申请的弱类型入参，字段名与 UI 载荷一致
type AccountApplicationInput struct {
	Name                 string               `json:"name"`
	CurrencyCode         string               `json:"currencyCode"`
	Timezone             string               `json:"timezone"`
	ProductType          *int                 `json:"productType"`
	RechargeAmount       string               `json:"rechargeAmount"`
	PromotionLinks       []string             `json:"promotionLinks"`
	Auths                []AuthEntry          `json:"auths"`
	AdvertisingCountries []string             `json:"advertisingCountries"`
	RegistrationDetails  *RegistrationDetails `json:"registrationDetails"`
	CompanyInfo          *CompanyInfoInput    `json:"companyInfo"`
	Remark               string               `json:"remark"`
}

// AccountApplication 校验通过后的强类型开户申请载荷
type AccountApplication struct {
	Name                 string
	CurrencyCode         string
	Timezone             string
	ProductType          int
	RechargeAmount       string
	PromotionLinks       []string
	Auths                []AuthEntry
	AdvertisingCountries []string
	RegistrationDetails  *RegistrationDetails
	CompanyInfo          *CompanyInfoInput
	Remark               string
}

// AccountValidator 按平台校验并归一化开户申请
type AccountValidator struct {
	dict domain.DictionaryService
}

// NewAccountValidator 创建开户申请校验器
func NewAccountValidator(dict domain.DictionaryService) *AccountValidator {
	return &AccountValidator{dict: dict}
}

// Validate 按平台子类型执行校验。
// 宽松模式下先严格校验，失败后对可选字段回填默认值重试；
// 身份字段缺失（name/currencyCode/timezone）不受宽松模式豁免。
func (v *AccountValidator) Validate(ctx context.Context, subtype domain.WorkOrderSubtype, input *AccountApplicationInput, opts Options) (*AccountApplication, error) {
	app, ve := v.validateStrict(ctx, subtype, input)
	if !ve.hasErrors() {
		return app, nil
	}

	if opts.Permissive {
		if app, ok := v.validatePermissive(ctx, subtype, input); ok {
			return app, nil
		}
	}
	return nil, ve
}

// validateStrict 严格校验：全部字段按平台规则检查
func (v *AccountValidator) validateStrict(ctx context.Context, subtype domain.WorkOrderSubtype, input *AccountApplicationInput) (*AccountApplication, *ValidationError) {
	ve := &ValidationError{}

	v.validateIdentity(ctx, input, ve)

	links := normalizePromotionLinks(input.PromotionLinks, ve)
	auths := validateAuths(input.Auths, ve)

	if strings.TrimSpace(input.RechargeAmount) != "" {
		validateAmount("rechargeAmount", input.RechargeAmount, ve)
	}

	productType := 0
	if input.ProductType != nil {
		productType = *input.ProductType
	}

	switch subtype {
	case domain.SubtypeGoogleAccount:
		v.validateGoogle(input, ve)
	case domain.SubtypeTiktokAccount:
		v.validateTiktok(input, ve)
	case domain.SubtypeFacebookAccount:
		// Facebook 仅需公共字段
	}

	v.validateCompanyInfo(input.CompanyInfo, ve)

	if ve.hasErrors() {
		return nil, ve
	}

	return &AccountApplication{
		Name:                 strings.TrimSpace(input.Name),
		CurrencyCode:         strings.TrimSpace(input.CurrencyCode),
		Timezone:             strings.TrimSpace(input.Timezone),
		ProductType:          productType,
		RechargeAmount:       strings.TrimSpace(input.RechargeAmount),
		PromotionLinks:       links,
		Auths:                auths,
		AdvertisingCountries: input.AdvertisingCountries,
		RegistrationDetails:  input.RegistrationDetails,
		CompanyInfo:          input.CompanyInfo,
		Remark:               input.Remark,
	}, ve
}

// validatePermissive 降级校验：可选字段回填默认值，身份字段仍硬性要求
func (v *AccountValidator) validatePermissive(ctx context.Context, subtype domain.WorkOrderSubtype, input *AccountApplicationInput) (*AccountApplication, bool) {
	ve := &ValidationError{}
	v.validateIdentity(ctx, input, ve)
	if ve.hasErrors() {
		return nil, false
	}

	linkVE := &ValidationError{}
	links := normalizePromotionLinks(input.PromotionLinks, linkVE)
	if linkVE.hasErrors() {
		return nil, false
	}

	// 可选字段：丢弃不合法条目而非整体失败
	auths := make([]AuthEntry, 0, len(input.Auths))
	for _, a := range input.Auths {
		entryVE := &ValidationError{}
		if kept := validateAuths([]AuthEntry{a}, entryVE); !entryVE.hasErrors() {
			auths = append(auths, kept...)
		}
	}

	amount := strings.TrimSpace(input.RechargeAmount)
	if amount != "" {
		amountVE := &ValidationError{}
		validateAmount("rechargeAmount", amount, amountVE)
		if amountVE.hasErrors() {
			amount = ""
		}
	}

	productType := 0
	if input.ProductType != nil {
		productType = *input.ProductType
	}

	return &AccountApplication{
		Name:                 strings.TrimSpace(input.Name),
		CurrencyCode:         strings.TrimSpace(input.CurrencyCode),
		Timezone:             strings.TrimSpace(input.Timezone),
		ProductType:          productType,
		RechargeAmount:       amount,
		PromotionLinks:       links,
		Auths:                auths,
		AdvertisingCountries: input.AdvertisingCountries,
		RegistrationDetails:  input.RegistrationDetails,
		CompanyInfo:          input.CompanyInfo,
		Remark:               input.Remark,
	}, true
}

// validateIdentity 身份字段：任何模式下都不得缺失
func (v *AccountValidator) validateIdentity(ctx context.Context, input *AccountApplicationInput, ve *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		ve.add("name", "account name is required")
	}
	if cur := strings.TrimSpace(input.CurrencyCode); cur == "" {
		ve.add("currencyCode", "currency code is required")
	} else {
		currencies := resolveOptionSet(ctx, v.dict, "COMMON", "CURRENCY", defaultCurrencies)
		if _, ok := currencies[cur]; !ok {
			ve.add("currencyCode", "unsupported currency code")
		}
	}
	if tz := strings.TrimSpace(input.Timezone); tz == "" {
		ve.add("timezone", "timezone is required")
	} else {
		timezones := resolveOptionSet(ctx, v.dict, "COMMON", "TIMEZONE", defaultTimezones)
		if _, ok := timezones[tz]; !ok {
			ve.add("timezone", "unsupported timezone")
		}
	}
}

// validateGoogle Google 要求结构化注册信息
func (v *AccountValidator) validateGoogle(input *AccountApplicationInput, ve *ValidationError) {
	if input.RegistrationDetails == nil {
		ve.add("registrationDetails", "registration details are required for Google applications")
		return
	}
	v.validateRegistrationDetails("registrationDetails", input.RegistrationDetails, ve)
}

// validateTiktok TikTok 要求投放国家与完整注册信息
func (v *AccountValidator) validateTiktok(input *AccountApplicationInput, ve *ValidationError) {
	if len(input.AdvertisingCountries) == 0 {
		ve.add("advertisingCountries", "at least one advertising country is required for TikTok applications")
	}
	if input.RegistrationDetails == nil {
		ve.add("registrationDetails", "registration details are required for TikTok applications")
		return
	}
	v.validateRegistrationDetails("registrationDetails", input.RegistrationDetails, ve)
}

// validateRegistrationDetails 注册信息必填项
func (v *AccountValidator) validateRegistrationDetails(prefix string, details *RegistrationDetails, ve *ValidationError) {
	if strings.TrimSpace(details.CompanyNameEN) == "" {
		ve.add(prefix+".companyNameEN", "English company name is required")
	}
	if strings.TrimSpace(details.LegalRepName) == "" {
		ve.add(prefix+".legalRepName", "legal representative name is required")
	}
	if strings.TrimSpace(details.IDNumber) == "" {
		ve.add(prefix+".idNumber", "ID number is required")
	}
}

// validateCompanyInfo 公司信息：引用模板或完整提交，二选一
func (v *AccountValidator) validateCompanyInfo(info *CompanyInfoInput, ve *ValidationError) {
	if info == nil {
		return
	}
	if info.UserCompanyInfoID != nil {
		// 引用已保存模板，其余字段以模板快照为准
		return
	}
	if strings.TrimSpace(info.CompanyNameCN) == "" && strings.TrimSpace(info.CompanyNameEN) == "" {
		ve.add("companyInfo.companyNameCN", "company name is required")
	}
	if strings.TrimSpace(info.BusinessLicenseNo) == "" {
		ve.add("companyInfo.businessLicenseNo", "business license number is required")
	}
	for i, att := range info.Attachments {
		if strings.TrimSpace(att.FileURL) == "" {
			ve.add(fmt.Sprintf("companyInfo.attachments[%d].fileUrl", i), "file URL is required")
		}
	}
}
