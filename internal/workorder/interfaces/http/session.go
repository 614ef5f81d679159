// Package http 工单服务的 HTTP 接口层
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/response"
)

// sessionKey 会话在 context 中的键
type sessionKey struct{}

// HeaderSessionProvider 基于请求头的会话提供方
// 身份认证由前置网关完成，用户身份通过受信请求头透传
type HeaderSessionProvider struct{}

// CurrentSession 从 context 取会话
func (HeaderSessionProvider) CurrentSession(ctx context.Context) (*domain.Session, error) {
	s, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return s, nil
}

// SessionMiddleware 解析身份请求头并注入会话，缺少身份时拒绝
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			response.ErrorWithStatus(c, 401, domain.CodeUnauthorized, "login required")
			c.Abort()
			return
		}

		role := c.GetHeader("X-User-Role")
		if role == "" {
			role = "operator"
		}
		session := &domain.Session{
			UserID:      userID,
			DisplayName: c.GetHeader("X-User-Name"),
			Role:        role,
		}

		ctx := context.WithValue(c.Request.Context(), sessionKey{}, session)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// sessionProvider 默认会话提供方，身份由中间件写入 context
var sessionProvider domain.SessionProvider = HeaderSessionProvider{}

// sessionFrom 从请求取会话，中间件已保证存在
func sessionFrom(c *gin.Context) *domain.Session {
	s, _ := sessionProvider.CurrentSession(c.Request.Context())
	return s
}
