package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
)

func TestListScopesToOwnerForOperators(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.submitDeposit(t)
	env.submitDeposit(t)

	other := &domain.Session{UserID: "u-2", Role: "operator"}
	_, err := env.cmd.SubmitFunding(ctx, CreateFundingCommand{
		Subtype: domain.SubtypeDeposit,
		Session: other,
		Input:   &validation.FundingInput{MediaAccountID: "act-200", Amount: "10"},
	})
	require.NoError(t, err)

	// 普通用户只能看到自己的工单
	result, err := env.query.List(ctx, operator, ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.EqualValues(t, 2, result.Total)

	// 审核角色可见全量
	result, err = env.query.List(ctx, reviewer, ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
}

func TestListFiltersAndPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.submitDeposit(t)
	}
	env.submitGoogle(t)

	result, err := env.query.List(ctx, reviewer, ListQuery{Status: string(domain.StatusPending), Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.EqualValues(t, 5, result.Total)
	assert.Equal(t, 1, result.PageNumber)
	assert.Equal(t, 2, result.PageSize)

	result, err = env.query.List(ctx, reviewer, ListQuery{Subtype: string(domain.SubtypeGoogleAccount), Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, string(domain.StatusProcessing), result.Items[0].Status)
	assert.Equal(t, "Acme Ads", result.Items[0].AccountName)
}

func TestListKeywordSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.submitGoogle(t)

	result, err := env.query.List(ctx, reviewer, ListQuery{Keyword: created.TaskNumber, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, created.TaskNumber, result.Items[0].TaskNumber)

	result, err = env.query.List(ctx, reviewer, ListQuery{Keyword: "Acme", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)

	result, err = env.query.List(ctx, reviewer, ListQuery{Keyword: "no-such-thing", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestGetDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.submitGoogle(t)

	detail, err := env.query.GetDetail(ctx, operator, created.TaskID)
	require.NoError(t, err)
	assert.Equal(t, created.TaskNumber, detail.TaskNumber)
	assert.Equal(t, 20, detail.StatusCode)
	require.NotNil(t, detail.BusinessData)
	assert.Equal(t, "Acme Ads", detail.BusinessData.AccountName)
	require.Len(t, detail.RawDataList, 1)
	assert.Equal(t, string(domain.SyncStatusSuccess), detail.RawDataList[0].SyncStatus)

	// 其他普通用户不可见
	other := &domain.Session{UserID: "u-2", Role: "operator"}
	_, err = env.query.GetDetail(ctx, other, created.TaskID)
	require.Error(t, err)
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

	_, err = env.query.GetDetail(ctx, operator, "no-such-task")
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestAuditTrailOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.submitDeposit(t)
	_, err := env.review.Reject(ctx, ReviewCommand{TaskID: created.TaskID, Session: reviewer, Reason: "incomplete"})
	require.NoError(t, err)

	entries, err := env.query.AuditTrail(ctx, created.TaskID, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, string(domain.AuditActionCreate), entries[0].Action)
	assert.Equal(t, string(domain.AuditActionReject), entries[1].Action)
	assert.Equal(t, reviewer.UserID, entries[1].PerformedBy)
}

func TestPendingCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	count, err := env.query.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	env.submitDeposit(t)
	env.submitDeposit(t)
	env.submitGoogle(t) // PROCESSING，不计入待审

	count, err = env.query.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
