package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/application"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/infrastructure/gateway"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/infrastructure/persistence"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
)

type testServer struct {
	router  *gin.Engine
	gateway *gateway.MockGateway
	cmd     *application.WorkOrderCommandService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.WorkOrder{},
		&domain.RawData{},
		&domain.BusinessData{},
		&domain.CompanyInfo{},
		&domain.Attachment{},
		&domain.AuditLogEntry{},
		&domain.UserCompanyInfo{},
	))

	repo := persistence.NewGormWorkOrderRepository(db)
	auditRepo := persistence.NewGormAuditLogRepository(db)
	userCompanyRepo := persistence.NewGormUserCompanyInfoRepository(db)
	gw := gateway.NewMockGateway()
	auditor := application.NewAuditRecorder(auditRepo, nil)

	cmd := application.NewWorkOrderCommandService(
		repo, userCompanyRepo, gw, auditor,
		validation.NewAccountValidator(nil), validation.NewFundingValidator(),
		validation.Options{}, nil,
	)
	review := application.NewReviewService(repo, gw, auditor, nil)
	query := application.NewWorkOrderQueryService(repo, auditRepo, nil, nil)

	router := gin.New()
	handler := NewWorkOrderHandler(cmd, review, query, repo)
	handler.RegisterRoutes(&router.RouterGroup)

	return &testServer{router: router, gateway: gw, cmd: cmd}
}

func (s *testServer) do(t *testing.T, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelopeBody struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var env envelopeBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func accountApplicationBody() map[string]any {
	return map[string]any{
		"platform":       "google",
		"name":           "Acme Ads",
		"currencyCode":   "USD",
		"timezone":       "Asia/Shanghai",
		"promotionLinks": []string{"https://acme.com"},
		"registrationDetails": map[string]any{
			"companyNameEN": "Acme Ltd",
			"legalRepName":  "Jane Doe",
			"idNumber":      "110101199001011234",
		},
	}
}

func TestCreateAccountApplicationEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/workorders/account-applications", "u-1", "", accountApplicationBody())
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "OK", env.Code)

	var result struct {
		TaskNumber string `json:"taskNumber"`
		TaskID     string `json:"taskId"`
		Status     string `json:"status"`
		StatusCode int    `json:"statusCode"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Regexp(t, `^AAG-\d{8}-[A-Z0-9]{10}$`, result.TaskNumber)
	assert.Equal(t, "PROCESSING", result.Status)
	assert.Equal(t, 20, result.StatusCode)
}

func TestMissingIdentityHeaderRejected(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/workorders", "", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, domain.CodeUnauthorized, env.Code)
}

func TestValidationErrorMapsToBadRequest(t *testing.T) {
	srv := newTestServer(t)

	body := accountApplicationBody()
	body["name"] = ""

	w := srv.do(t, http.MethodPost, "/api/v1/workorders/account-applications", "u-1", "", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, domain.CodeValidation, env.Code)
	assert.Contains(t, env.Message, "name")
}

func TestUnsupportedPlatformRejected(t *testing.T) {
	srv := newTestServer(t)

	body := accountApplicationBody()
	body["platform"] = "yandex"

	w := srv.do(t, http.MethodPost, "/api/v1/workorders/account-applications", "u-1", "", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidation, decodeEnvelope(t, w).Code)
}

func TestApproveTerminalReturnsConflict(t *testing.T) {
	srv := newTestServer(t)

	created, err := srv.cmd.SubmitFunding(context.Background(), application.CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: &domain.Session{UserID: "u-1", Role: "operator"},
		Input:   &validation.FundingInput{MediaAccountID: "act-100", MediaPlatform: 2, Amount: "100", Currency: "USD"},
	})
	require.NoError(t, err)

	path := "/api/v1/workorders/" + created.TaskID + "/approve"
	w := srv.do(t, http.MethodPost, path, "r-1", "reviewer", map[string]any{"remark": "ok"})
	require.Equal(t, http.StatusOK, w.Code)

	// 终态工单再次审核返回 409
	w = srv.do(t, http.MethodPost, path, "r-1", "reviewer", map[string]any{"remark": "again"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.CodeStatusTransition, decodeEnvelope(t, w).Code)
}

func TestRejectWithoutReviewerRoleForbidden(t *testing.T) {
	srv := newTestServer(t)

	created, err := srv.cmd.SubmitFunding(context.Background(), application.CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: &domain.Session{UserID: "u-1", Role: "operator"},
		Input:   &validation.FundingInput{MediaAccountID: "act-100", Amount: "100"},
	})
	require.NoError(t, err)

	w := srv.do(t, http.MethodPost, "/api/v1/workorders/"+created.TaskID+"/reject", "u-2", "operator", map[string]any{"reason": "bad"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.CodeForbidden, decodeEnvelope(t, w).Code)
}

func TestListStatusCodeDialect(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.cmd.SubmitFunding(context.Background(), application.CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: &domain.Session{UserID: "u-1", Role: "operator"},
		Input:   &validation.FundingInput{MediaAccountID: "act-100", Amount: "100"},
	})
	require.NoError(t, err)

	w := srv.do(t, http.MethodGet, "/api/v1/workorders?statusCode=10", "u-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Items []struct {
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
		} `json:"items"`
		Total      int64 `json:"total"`
		PageNumber int   `json:"pageNumber"`
		PageSize   int   `json:"pageSize"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	require.Len(t, result.Items, 1)
	assert.Equal(t, "PENDING", result.Items[0].Status)
	assert.Equal(t, 10, result.Items[0].StatusCode)
	assert.EqualValues(t, 1, result.Total)
	assert.Equal(t, 1, result.PageNumber)
	assert.Equal(t, 20, result.PageSize)

	// 不存在的状态码不命中任何工单
	w = srv.do(t, http.MethodGet, "/api/v1/workorders?statusCode=40", "u-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	assert.Empty(t, result.Items)
}

func TestUnknownTaskReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/workorders/record/no-such-task", "u-1", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeNotFound, decodeEnvelope(t, w).Code)
}

func TestActionsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	created, err := srv.cmd.SubmitFunding(context.Background(), application.CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: &domain.Session{UserID: "u-1", Role: "operator"},
		Input:   &validation.FundingInput{MediaAccountID: "act-100", Amount: "100"},
	})
	require.NoError(t, err)

	w := srv.do(t, http.MethodGet, "/api/v1/workorders/"+created.TaskID+"/actions", "r-1", "reviewer", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Actions []string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	assert.ElementsMatch(t, []string{"approve", "reject", "return"}, result.Actions)
}

func TestReturnEndpoint(t *testing.T) {
	srv := newTestServer(t)

	created, err := srv.cmd.SubmitFunding(context.Background(), application.CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: &domain.Session{UserID: "u-1", Role: "operator"},
		Input:   &validation.FundingInput{MediaAccountID: "act-100", Amount: "100"},
	})
	require.NoError(t, err)

	// 无退回原因直接驳回
	w := srv.do(t, http.MethodPost, "/api/v1/workorders/"+created.TaskID+"/return", "r-1", "reviewer", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/workorders/"+created.TaskID+"/return", "r-1", "reviewer", map[string]interface{}{
		"reason": "amount mismatch",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Status     string `json:"status"`
		StatusCode int    `json:"statusCode"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	assert.Equal(t, "RETURNED", result.Status)
	assert.Equal(t, 80, result.StatusCode)
}
