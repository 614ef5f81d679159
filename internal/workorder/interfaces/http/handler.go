package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/application"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
	"github.com/jqjjian/ad-workflow-sub001/pkg/response"
)

// WorkOrderHandler HTTP 处理器
type WorkOrderHandler struct {
	cmd    *application.WorkOrderCommandService
	review *application.ReviewService
	query  *application.WorkOrderQueryService
	repo   domain.WorkOrderRepository
}

// NewWorkOrderHandler 创建 HTTP 处理器实例
func NewWorkOrderHandler(cmd *application.WorkOrderCommandService, review *application.ReviewService, query *application.WorkOrderQueryService, repo domain.WorkOrderRepository) *WorkOrderHandler {
	return &WorkOrderHandler{cmd: cmd, review: review, query: query, repo: repo}
}

// RegisterRoutes 注册路由
func (h *WorkOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/workorders")
	api.Use(SessionMiddleware())
	{
		api.POST("/account-applications", h.CreateAccountApplication) // 提交开户申请
		api.PUT("/account-applications/:id", h.Update)                // 更新开户申请
		api.POST("/funding", h.CreateFunding)                         // 提交资金操作
		api.PUT("/funding/:id", h.Update)                             // 更新资金操作

		api.GET("", h.List)                  // 工单列表
		api.GET("/record/:id", h.GetDetail)  // 申请记录详情
		api.GET("/pending-count", h.PendingCount)

		api.POST("/:id/approve", h.Approve) // 审核通过
		api.POST("/:id/reject", h.Reject)   // 审核拒绝
		api.POST("/:id/return", h.Return)   // 退回修改
		api.POST("/:id/cancel", h.Cancel)   // 取消工单
		api.GET("/:id/actions", h.Actions)  // 可执行动作
		api.GET("/:id/audit", h.AuditTrail) // 审计轨迹
	}
}

// platformSubtypes 平台标识到子类型的映射
var platformSubtypes = map[string]domain.WorkOrderSubtype{
	"GOOGLE":   domain.SubtypeGoogleAccount,
	"FACEBOOK": domain.SubtypeFacebookAccount,
	"TIKTOK":   domain.SubtypeTiktokAccount,
}

// CreateAccountApplicationRequest 开户申请请求，平台在请求体中指定
type CreateAccountApplicationRequest struct {
	Platform string `json:"platform" binding:"required"`
	validation.AccountApplicationInput
}

// CreateAccountApplication 提交开户申请
func (h *WorkOrderHandler) CreateAccountApplication(c *gin.Context) {
	var req CreateAccountApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, domain.CodeValidation, err.Error())
		return
	}

	subtype, ok := platformSubtypes[strings.ToUpper(req.Platform)]
	if !ok {
		response.ErrorWithStatus(c, http.StatusBadRequest, domain.CodeValidation, "unsupported platform: "+req.Platform)
		return
	}

	result, err := h.cmd.SubmitAccountApplication(c.Request.Context(), application.CreateAccountApplicationCommand{
		Subtype: subtype,
		Session: sessionFrom(c),
		Input:   &req.AccountApplicationInput,
	})
	if err != nil {
		h.fail(c, "Failed to submit account application", err)
		return
	}
	response.Success(c, result)
}

// CreateFundingRequest 资金操作请求
type CreateFundingRequest struct {
	OperationType string `json:"operationType" binding:"required"`
	validation.FundingInput
}

// CreateFunding 提交资金操作
func (h *WorkOrderHandler) CreateFunding(c *gin.Context) {
	var req CreateFundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, domain.CodeValidation, err.Error())
		return
	}

	result, err := h.cmd.SubmitFunding(c.Request.Context(), application.CreateFundingCommand{
		Subtype: domain.WorkOrderSubtype(strings.ToUpper(req.OperationType)),
		Session: sessionFrom(c),
		Input:   &req.FundingInput,
	})
	if err != nil {
		h.fail(c, "Failed to submit funding operation", err)
		return
	}
	response.Success(c, result)
}

// Update 更新（重新提交）工单，载荷按工单子类型解释
func (h *WorkOrderHandler) Update(c *gin.Context) {
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, domain.CodeValidation, err.Error())
		return
	}

	result, err := h.cmd.Update(c.Request.Context(), application.UpdateWorkOrderCommand{
		TaskID:  c.Param("id"),
		Session: sessionFrom(c),
		Payload: payload,
	})
	if err != nil {
		h.fail(c, "Failed to update work order", err)
		return
	}
	response.Success(c, result)
}

// List 分页查询工单列表
func (h *WorkOrderHandler) List(c *gin.Context) {
	q := application.ListQuery{
		Status:  c.Query("status"),
		Type:    c.Query("type"),
		Subtype: c.Query("subtype"),
		UserID:  c.Query("userId"),
		Keyword: c.Query("keyword"),
	}
	q.Page, q.PageSize = pageParams(c)
	q.DateFrom = parseTimeParam(c.Query("dateFrom"))
	q.DateTo = parseTimeParam(c.Query("dateTo"))

	// 数字状态码方言兼容
	if code := c.Query("statusCode"); code != "" && q.Status == "" {
		if n, err := strconv.Atoi(code); err == nil {
			q.Status = string(domain.StatusFromCode(n))
		}
	}

	result, err := h.query.List(c.Request.Context(), sessionFrom(c), q)
	if err != nil {
		h.fail(c, "Failed to list work orders", err)
		return
	}
	response.Success(c, result)
}

// GetDetail 申请记录详情
func (h *WorkOrderHandler) GetDetail(c *gin.Context) {
	detail, err := h.query.GetDetail(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get work order detail", err)
		return
	}
	response.Success(c, detail)
}

// ReviewRequest 审核请求
type ReviewRequest struct {
	Remark string `json:"remark"`
	Reason string `json:"reason"`
}

// Approve 审核通过
func (h *WorkOrderHandler) Approve(c *gin.Context) {
	var req ReviewRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.review.Approve(c.Request.Context(), application.ReviewCommand{
		TaskID:  c.Param("id"),
		Session: sessionFrom(c),
		Remark:  req.Remark,
	})
	if err != nil {
		h.fail(c, "Failed to approve work order", err)
		return
	}
	response.Success(c, result)
}

// Reject 审核拒绝
func (h *WorkOrderHandler) Reject(c *gin.Context) {
	var req ReviewRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.review.Reject(c.Request.Context(), application.ReviewCommand{
		TaskID:  c.Param("id"),
		Session: sessionFrom(c),
		Reason:  req.Reason,
	})
	if err != nil {
		h.fail(c, "Failed to reject work order", err)
		return
	}
	response.Success(c, result)
}

// Return 退回修改
func (h *WorkOrderHandler) Return(c *gin.Context) {
	var req ReviewRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.review.Return(c.Request.Context(), application.ReviewCommand{
		TaskID:  c.Param("id"),
		Session: sessionFrom(c),
		Reason:  req.Reason,
	})
	if err != nil {
		h.fail(c, "Failed to return work order", err)
		return
	}
	response.Success(c, result)
}

// Cancel 取消工单
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	if err := h.cmd.Cancel(c.Request.Context(), c.Param("id"), sessionFrom(c)); err != nil {
		h.fail(c, "Failed to cancel work order", err)
		return
	}
	response.Success(c, nil)
}

// Actions 返回当前会话对工单可执行的动作
func (h *WorkOrderHandler) Actions(c *gin.Context) {
	wo, err := h.repo.GetByTaskID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to load work order", err)
		return
	}
	response.Success(c, gin.H{"actions": h.review.ActionsFor(wo, sessionFrom(c))})
}

// AuditTrail 审计轨迹
func (h *WorkOrderHandler) AuditTrail(c *gin.Context) {
	entries, err := h.query.AuditTrail(c.Request.Context(), c.Param("id"),
		parseTimeParam(c.Query("from")), parseTimeParam(c.Query("to")))
	if err != nil {
		h.fail(c, "Failed to load audit trail", err)
		return
	}
	response.Success(c, gin.H{"entries": entries})
}

// PendingCount 待审工单数量
func (h *WorkOrderHandler) PendingCount(c *gin.Context) {
	count, err := h.query.PendingCount(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to count pending work orders", err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// statusByCode 错误码到 HTTP 状态的映射
var statusByCode = map[string]int{
	domain.CodeValidation:       http.StatusBadRequest,
	domain.CodeUnauthorized:     http.StatusUnauthorized,
	domain.CodeForbidden:        http.StatusForbidden,
	domain.CodeNotFound:         http.StatusNotFound,
	domain.CodeStatusTransition: http.StatusConflict,
	domain.CodeThirdParty:       http.StatusBadGateway,
	domain.CodeInternal:         http.StatusInternalServerError,
}

// fail 统一错误出口：领域错误码映射 HTTP 状态，消息直接可展示
func (h *WorkOrderHandler) fail(c *gin.Context, msg string, err error) {
	code := domain.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, "error", err)
	} else {
		logger.Warn(c.Request.Context(), msg, "code", code, "error", err)
	}
	response.ErrorWithStatus(c, status, code, domain.MessageOf(err))
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (int, int) {
	page, pageSize := 1, 20
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	if v := c.Query("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			pageSize = n
		}
	}
	return page, pageSize
}

// parseTimeParam 解析时间参数，支持 RFC3339 与 yyyy-mm-dd
func parseTimeParam(v string) *time.Time {
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t
	}
	return nil
}
