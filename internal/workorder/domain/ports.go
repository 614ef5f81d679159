package domain

import (
	"context"
)

// Session 当前登录会话
type Session struct {
	// 用户 ID
	UserID string
	// 展示名
	DisplayName string
	// 角色：operator, reviewer, admin
	Role string
}

// IsReviewer 是否具备审核权限
func (s *Session) IsReviewer() bool {
	return s.Role == "reviewer" || s.Role == "admin"
}

// SessionProvider 会话提供方（外部协作者，实现不在本仓库范围内）
type SessionProvider interface {
	// CurrentSession 获取当前会话，未登录时返回 nil
	CurrentSession(ctx context.Context) (*Session, error)
}

// DictionaryItem 字典项
type DictionaryItem struct {
	// 展示名
	ItemName string
	// 取值
	ItemValue string
}

// DictionaryService 字典/枚举查询服务（外部协作者）
// 查询失败时校验层回退到内置默认集合，不阻塞提交
type DictionaryService interface {
	// GetItems 按分类与键查询字典项
	GetItems(ctx context.Context, category, key string) ([]DictionaryItem, error)
}

// UploadedFile 外部上传服务返回的文件元数据
// 文件内容由上传协作者写入对象存储，这里只流转元数据
type UploadedFile struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}
