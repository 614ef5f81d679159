package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
)

// FundingInput 资金操作的弱类型入参（充值/减款/转账/清零/绑定）
type FundingInput struct {
	// MediaAccountID 媒体平台账户 ID
	MediaAccountID string `json:"mediaAccountId"`
	// MediaPlatform 媒体平台标识（1=Facebook 2=Google 5=TikTok）
	MediaPlatform int `json:"mediaPlatform"`
	// Amount 字符串编码的金额，转账/充值/减款必填
	Amount string `json:"amount"`
	// Currency 币种
	Currency string `json:"currency"`
	// TargetAccountID 转账目标账户
	TargetAccountID string `json:"targetAccountId"`
	// BindRole 绑定操作的授权角色
	BindRole *int `json:"bindRole"`
	// BindValue 绑定操作的授权对象（邮箱或账户标识）
	BindValue string `json:"bindValue"`
	// Remark 备注
	Remark string `json:"remark"`
}

// FundingOperation 校验通过后的强类型资金操作载荷
type FundingOperation struct {
	MediaAccountID  string
	MediaPlatform   int
	Amount          decimal.Decimal
	AmountRaw       string
	Currency        string
	TargetAccountID string
	BindRole        int
	BindValue       string
	Remark          string
}

// FundingValidator 按操作子类型校验资金操作
type FundingValidator struct{}

// NewFundingValidator 创建资金操作校验器
func NewFundingValidator() *FundingValidator {
	return &FundingValidator{}
}

// Validate 按子类型分派校验规则
func (v *FundingValidator) Validate(subtype domain.WorkOrderSubtype, input *FundingInput) (*FundingOperation, error) {
	ve := &ValidationError{}

	accountID := strings.TrimSpace(input.MediaAccountID)
	if accountID == "" {
		ve.add("mediaAccountId", "media account id is required")
	}

	op := &FundingOperation{
		MediaAccountID:  accountID,
		MediaPlatform:   input.MediaPlatform,
		Currency:        strings.TrimSpace(input.Currency),
		TargetAccountID: strings.TrimSpace(input.TargetAccountID),
		BindValue:       strings.TrimSpace(input.BindValue),
		Remark:          input.Remark,
	}

	switch subtype {
	case domain.SubtypeDeposit, domain.SubtypeWithdrawal:
		op.Amount = validateAmount("amount", input.Amount, ve)
		op.AmountRaw = strings.TrimSpace(input.Amount)
	case domain.SubtypeTransfer:
		op.Amount = validateAmount("amount", input.Amount, ve)
		op.AmountRaw = strings.TrimSpace(input.Amount)
		if op.TargetAccountID == "" {
			ve.add("targetAccountId", "target account id is required")
		} else if op.TargetAccountID == accountID {
			ve.add("targetAccountId", "target account must differ from source account")
		}
	case domain.SubtypeZeroing:
		// 清零只需账户，不携带金额
	case domain.SubtypeBindAccount:
		if input.BindRole == nil {
			ve.add("bindRole", "bind role is required")
		} else {
			op.BindRole = *input.BindRole
		}
		if op.BindValue == "" {
			ve.add("bindValue", "bind value is required")
		}
	default:
		ve.add("subtype", "unsupported funding operation")
	}

	if ve.hasErrors() {
		return nil, ve
	}
	return op, nil
}
