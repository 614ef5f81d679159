// Package utils 提供 serialize/pagination/指针 等通用工具
package utils

import (
	"encoding/json"
	"strings"
	"time"
)

// ToJSON 序列化为 JSON 字符串，失败时返回空串
func ToJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// FromJSON 从 JSON 字符串反序列化
func FromJSON(data string, v interface{}) error {
	return json.Unmarshal([]byte(data), v)
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination 创建分页信息，页码从 1 开始
func NewPagination(page, pageSize int, total int64) *Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset 计算偏移量
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 返回每页大小
func (p *Pagination) Limit() int {
	return p.PageSize
}

// IsEmpty 判断字符串去除空白后是否为空
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsNotEmpty 判断字符串是否非空
func IsNotEmpty(s string) bool {
	return !IsEmpty(s)
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// DerefString 解引用字符串指针，nil 时返回空串
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FormatTime 格式化时间
func FormatTime(t time.Time, layout string) string {
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return t.Format(layout)
}

// ParseTime 解析时间字符串
func ParseTime(timeStr string, layout string) (time.Time, error) {
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return time.Parse(layout, timeStr)
}
