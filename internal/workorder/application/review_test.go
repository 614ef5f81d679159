package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
)

func TestApproveFundingSubmitsToGateway(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.submitDeposit(t)
	require.Zero(t, env.gateway.CallCount())

	approved, err := env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer, Remark: "checked"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusApproved), approved.Status)

	// 审核通过才触发动账
	require.Equal(t, 1, env.gateway.CallCount())
	assert.Equal(t, domain.EndpointFunding, env.gateway.Calls[0].Endpoint)

	wo, err := env.repo.GetByTaskID(ctx, approved.TaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, wo.Status)
	assert.Equal(t, "checked", wo.Remark)
	assert.Equal(t, "ext-task-1", wo.TaskID)

	rds, err := env.repo.ListRawData(ctx, wo.ID)
	require.NoError(t, err)
	require.Len(t, rds, 1)
	assert.Equal(t, domain.SyncStatusSuccess, rds[0].SyncStatus)

	entries, err := env.audit.ListByEntity(ctx, domain.EntityTypeWorkOrder, wo.ID, nil, nil)
	require.NoError(t, err)
	actions := make([]domain.AuditAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, domain.AuditActionCreate)
	assert.Contains(t, actions, domain.AuditActionApprove)
	assert.Contains(t, actions, domain.AuditActionUpdateExternalTaskID)
}

func TestApproveFundingGatewayFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.submitDeposit(t)
	env.gateway.SetResult(&domain.GatewayResult{
		Outcome:      domain.GatewayOutcomeFailed,
		ErrorMessage: "insufficient balance",
		RawResponse:  `{"code":"40001","message":"insufficient balance"}`,
	})

	approved, err := env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFailed), approved.Status)

	wo, err := env.repo.GetByTaskID(ctx, result.TaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, wo.Status)

	rds, err := env.repo.ListRawData(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusFailed, rds[0].SyncStatus)
	assert.Equal(t, "insufficient balance", rds[0].SyncError)
}

func TestApproveBindAccountSkipsGateway(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := 1
	result, err := env.cmd.SubmitFunding(ctx, CreateFundingCommand{
		Subtype: domain.SubtypeBindAccount,
		Session: operator,
		Input:   &validation.FundingInput{MediaAccountID: "act-9", BindRole: &role, BindValue: "ops@acme.com"},
	})
	require.NoError(t, err)

	approved, err := env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusApproved), approved.Status)
	assert.Zero(t, env.gateway.CallCount())
}

func TestApproveTerminalWorkOrderFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.submitDeposit(t)
	_, err := env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer})
	require.NoError(t, err)

	// 已通过的工单再次审核必须失败
	_, err = env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer})
	require.Error(t, err)
	assert.Equal(t, domain.CodeStatusTransition, domain.CodeOf(err))

	_, err = env.review.Reject(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer, Reason: "late"})
	require.Error(t, err)
	assert.Equal(t, domain.CodeStatusTransition, domain.CodeOf(err))
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)

	result := env.submitDeposit(t)
	_, err := env.review.Reject(context.Background(), ReviewCommand{TaskID: result.TaskID, Session: reviewer, Reason: "  "})
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestRejectRecordsReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.submitDeposit(t)
	rejected, err := env.review.Reject(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer, Reason: "missing license"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRejected), rejected.Status)

	wo, err := env.repo.GetByTaskID(ctx, result.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "missing license", wo.RejectReason)

	entries, err := env.audit.ListByEntity(ctx, domain.EntityTypeWorkOrder, wo.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.AuditActionReject, entries[len(entries)-1].Action)
}

func TestReturnRequestsModification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.submitDeposit(t)

	// 退回原因必填
	_, err := env.review.Return(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer, Reason: " "})
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

	returned, err := env.review.Return(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer, Reason: "amount mismatch"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusReturned), returned.Status)
	assert.Equal(t, 80, returned.StatusCode)

	wo, err := env.repo.GetByTaskID(ctx, result.TaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, wo.Status)
	assert.Equal(t, "amount mismatch", wo.Remark)

	entries, err := env.audit.ListByEntity(ctx, domain.EntityTypeWorkOrder, wo.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.AuditActionReturn, entries[len(entries)-1].Action)

	// 退回后不可再审核
	_, err = env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer})
	require.Error(t, err)
	assert.Equal(t, domain.CodeStatusTransition, domain.CodeOf(err))
}

func TestReturnedWorkOrderResubmits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.submitDeposit(t)
	_, err := env.review.Return(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer, Reason: "wrong account"})
	require.NoError(t, err)

	// 提交人修正后重新提交，回到待审
	payload := []byte(`{"mediaAccountId":"act-101","mediaPlatform":2,"amount":"600.00","currency":"USD"}`)
	updated, err := env.cmd.Update(ctx, UpdateWorkOrderCommand{TaskID: result.TaskID, Session: operator, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), updated.Status)

	wo, err := env.repo.GetByTaskID(ctx, result.TaskID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"approve", "reject", "return"}, env.review.ActionsFor(wo, reviewer))
}

func TestReviewRequiresReviewerRole(t *testing.T) {
	env := newTestEnv(t)

	result := env.submitDeposit(t)
	_, err := env.review.Approve(context.Background(), ReviewCommand{TaskID: result.TaskID, Session: operator})
	require.Error(t, err)
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
}

func TestReviewersCannotApproveOwnWorkOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.cmd.SubmitFunding(ctx, CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: reviewer,
		Input:   &validation.FundingInput{MediaAccountID: "act-1", Amount: "10"},
	})
	require.NoError(t, err)

	_, err = env.review.Approve(ctx, ReviewCommand{TaskID: result.TaskID, Session: reviewer})
	require.Error(t, err)
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
}

func TestActionsFor(t *testing.T) {
	env := newTestEnv(t)

	result := env.submitDeposit(t)
	wo, err := env.repo.GetByTaskID(context.Background(), result.TaskID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"update", "cancel"}, env.review.ActionsFor(wo, operator))
	assert.ElementsMatch(t, []string{"approve", "reject", "return"}, env.review.ActionsFor(wo, reviewer))

	wo.Status = domain.StatusApproved
	assert.Empty(t, env.review.ActionsFor(wo, operator))
	assert.Empty(t, env.review.ActionsFor(wo, reviewer))
}
