package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusReturned, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusPending, true},
		{StatusReturned, StatusPending, true},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusApproved, false},
		{StatusCompleted, StatusFailed, false},
		{StatusRejected, StatusPending, false},
		{StatusCanceled, StatusPending, false},
		{StatusProcessing, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())

	// FAILED 可重新提交，不算终态
	assert.False(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, StatusReturned.IsTerminal())
}

func TestStatusCodeDialect(t *testing.T) {
	assert.Equal(t, 10, StatusPending.Code())
	assert.Equal(t, 20, StatusProcessing.Code())
	assert.Equal(t, 80, StatusReturned.Code())

	assert.Equal(t, StatusFailed, StatusFromCode(60))
	assert.Equal(t, Status(""), StatusFromCode(99))
}

func TestWorkOrderTransitionTo(t *testing.T) {
	wo := NewWorkOrder("AAG-20260829-ABCDEF1234", SubtypeGoogleAccount, "u-1", nil)
	assert.Equal(t, StatusPending, wo.Status)

	require.NoError(t, wo.TransitionTo(StatusProcessing))
	assert.Equal(t, StatusProcessing, wo.Status)

	err := wo.TransitionTo(StatusPending)
	require.Error(t, err)
	assert.Equal(t, CodeStatusTransition, CodeOf(err))
	assert.Equal(t, StatusProcessing, wo.Status)
}

func TestTaskNumberFormat(t *testing.T) {
	patterns := map[WorkOrderSubtype]string{
		SubtypeGoogleAccount:   `^AAG-\d{8}-[A-Z0-9]{10}$`,
		SubtypeFacebookAccount: `^AAF-\d{8}-[A-Z0-9]{10}$`,
		SubtypeTiktokAccount:   `^AAT-\d{8}-[A-Z0-9]{10}$`,
		SubtypeDeposit:         `^AMD-\d{8}-[A-Z0-9]{10}$`,
		SubtypeWithdrawal:      `^AMW-\d{8}-[A-Z0-9]{10}$`,
		SubtypeTransfer:        `^AMR-\d{8}-[A-Z0-9]{10}$`,
		SubtypeZeroing:         `^AMZ-\d{8}-[A-Z0-9]{10}$`,
		SubtypeBindAccount:     `^AMB-\d{8}-[A-Z0-9]{10}$`,
	}
	for subtype, pattern := range patterns {
		tn := GenerateTaskNumber(subtype)
		assert.Regexp(t, regexp.MustCompile(pattern), tn, "subtype %s", subtype)
	}
}

func TestTaskNumbersAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100000; i++ {
		tn := GenerateTaskNumber(SubtypeGoogleAccount)
		_, dup := seen[tn]
		require.False(t, dup, "duplicate task number %s", tn)
		seen[tn] = struct{}{}
	}
}

func TestMetadataMapToleratesGarbage(t *testing.T) {
	wo := &WorkOrder{Metadata: "{not json"}
	assert.Empty(t, wo.MetadataMap())

	wo.Metadata = `{"platformHint":"google"}`
	assert.Equal(t, "google", wo.MetadataMap()["platformHint"])

	wo.Metadata = ""
	assert.NotNil(t, wo.MetadataMap())
}
