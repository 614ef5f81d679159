// Package validation 提供各平台/各操作的载荷校验与归一化
package validation

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
)

// maxPromotionLinksLength 推广链接总长度上限，受下游 API 限制
const maxPromotionLinksLength = 1800

// amountPattern 金额格式：正数，至多两位小数
// 金额一律按字符串校验，避免二进制浮点舍入
var amountPattern = regexp.MustCompile(`^(0|[1-9]\d*)(\.\d{1,2})?$`)

// Options 校验选项
type Options struct {
	// Permissive 宽松模式：严格校验失败后对可选字段回填默认值重试；
	// 身份字段（name/currencyCode/timezone）缺失仍然硬失败
	Permissive bool
}

// FieldError 单字段校验失败
type FieldError struct {
	// 字段路径（与 UI 载荷字段名一致）
	Field string `json:"field"`
	// 失败原因
	Message string `json:"message"`
}

// ValidationError 结构化校验失败，枚举全部出错字段
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error 实现 error 接口，聚合全部字段错误
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add 追加字段错误
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// hasErrors 是否存在字段错误
func (e *ValidationError) hasErrors() bool {
	return len(e.Fields) > 0
}

// AuthEntry 授权条目：角色 + 邮箱
// 允许整条为空（占位行），但不允许只填一半
type AuthEntry struct {
	Role  *int    `json:"role"`
	Value *string `json:"value"`
}

// IsEmpty 判断是否为空占位条目
func (a AuthEntry) IsEmpty() bool {
	return a.Role == nil && (a.Value == nil || strings.TrimSpace(*a.Value) == "")
}

// normalizePromotionLinks 归一化推广链接：
// 裸域名自动补 https:// 前缀，校验 URL 语法，限制总长度
func normalizePromotionLinks(links []string, ve *ValidationError) []string {
	trimmed := make([]string, 0, len(links))
	for _, link := range links {
		if l := strings.TrimSpace(link); l != "" {
			trimmed = append(trimmed, l)
		}
	}

	if len(trimmed) == 0 {
		ve.add("promotionLinks", "at least one promotion link is required")
		return nil
	}

	normalized := make([]string, 0, len(trimmed))
	total := 0
	for i, link := range trimmed {
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			link = "https://" + link
		}
		u, err := url.Parse(link)
		if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
			ve.add(fmt.Sprintf("promotionLinks[%d]", i), "invalid URL")
			continue
		}
		total += len(link)
		normalized = append(normalized, link)
	}

	if total > maxPromotionLinksLength {
		ve.add("promotionLinks", fmt.Sprintf("total length of promotion links exceeds %d characters", maxPromotionLinksLength))
	}

	return normalized
}

// validateAmount 校验字符串编码的金额：格式合法且为正数
func validateAmount(field, value string, ve *ValidationError) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		ve.add(field, "amount is required")
		return decimal.Zero
	}
	if !amountPattern.MatchString(value) {
		ve.add(field, "amount must be a positive number with at most 2 decimal places")
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(value)
	if err != nil || !amount.IsPositive() {
		ve.add(field, "amount must be positive")
		return decimal.Zero
	}
	return amount
}

// validateAuths 校验授权条目：全空放行，半填报错，全填校验邮箱语法
func validateAuths(auths []AuthEntry, ve *ValidationError) []AuthEntry {
	valid := make([]AuthEntry, 0, len(auths))
	for i, a := range auths {
		if a.IsEmpty() {
			continue
		}

		email := ""
		if a.Value != nil {
			email = strings.TrimSpace(*a.Value)
		}
		if a.Role == nil || email == "" {
			ve.add(fmt.Sprintf("auths[%d]", i), "both role and email are required")
			continue
		}
		if _, err := mail.ParseAddress(email); err != nil {
			ve.add(fmt.Sprintf("auths[%d].value", i), "invalid email address")
			continue
		}
		valid = append(valid, a)
	}
	return valid
}

// 字典查询失败时的内置默认集合
var (
	defaultTimezones = []string{
		"Asia/Shanghai", "Asia/Hong_Kong", "Asia/Singapore", "Asia/Tokyo",
		"America/New_York", "America/Los_Angeles", "Europe/London", "UTC",
	}
	defaultCurrencies = []string{"USD", "CNY", "HKD", "EUR", "SGD", "JPY"}
)

// resolveOptionSet 通过字典服务解析枚举集合，失败时回退默认值
func resolveOptionSet(ctx context.Context, dict domain.DictionaryService, category, key string, fallback []string) map[string]struct{} {
	values := fallback
	if dict != nil {
		items, err := dict.GetItems(ctx, category, key)
		if err != nil || len(items) == 0 {
			if err != nil {
				logger.Warn(ctx, "Dictionary lookup failed, falling back to defaults",
					"category", category,
					"key", key,
					"error", err,
				)
			}
		} else {
			values = make([]string, 0, len(items))
			for _, item := range items {
				values = append(values, item.ItemValue)
			}
		}
	}

	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
