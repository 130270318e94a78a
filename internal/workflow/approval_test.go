package workflow_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/snowops-costcontrol/internal/model"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
)

func threshold(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestDecide(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()
	policy := &model.CostApprovalPolicy{
		CODualThresholdAmount:          threshold("1000000"),
		CertificateDualThresholdAmount: threshold("0"),
	}

	cases := []struct {
		name    string
		req     workflow.ApprovalRequest
		outcome workflow.Outcome
		stage   model.ApprovalStage
		err     error
	}{
		{
			name:    "no policy row",
			req:     workflow.ApprovalRequest{Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(5_000_000), ActorID: actor},
			outcome: workflow.OutcomeFinalApproved,
		},
		{
			name:    "kind without threshold",
			req:     workflow.ApprovalRequest{Kind: model.EntityActualPayment, Amount: decimal.NewFromInt(5_000_000), Policy: policy, ActorID: actor},
			outcome: workflow.OutcomeFinalApproved,
		},
		{
			name:    "zero threshold counts as unset",
			req:     workflow.ApprovalRequest{Kind: model.EntityPaymentCertificate, Amount: decimal.NewFromInt(10), Policy: policy, ActorID: actor},
			outcome: workflow.OutcomeFinalApproved,
		},
		{
			name:    "amount equal to threshold stays single stage",
			req:     workflow.ApprovalRequest{Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_000_000), Policy: policy, ActorID: actor},
			outcome: workflow.OutcomeFinalApproved,
		},
		{
			name:    "above threshold records first stage",
			req:     workflow.ApprovalRequest{Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_500_000), Policy: policy, ActorID: actor},
			outcome: workflow.OutcomeFirstStageRecorded,
			stage:   model.ApprovalStageFirst,
		},
		{
			name:    "large deductions are dual too",
			req:     workflow.ApprovalRequest{Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(-1_500_000), Policy: policy, ActorID: actor},
			outcome: workflow.OutcomeFirstStageRecorded,
			stage:   model.ApprovalStageFirst,
		},
		{
			name:    "unlimited authority bypasses",
			req:     workflow.ApprovalRequest{Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_500_000), Policy: policy, ActorID: actor, UnlimitedAuthority: true},
			outcome: workflow.OutcomeFinalApproved,
		},
		{
			name: "same user cannot supply second stage",
			req: workflow.ApprovalRequest{
				Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_500_000), Policy: policy,
				ActorID: actor, FirstApprover: &actor, AwaitingSecond: true,
			},
			err: workflow.ErrDualApprovalSameUser,
		},
		{
			name: "different user closes second stage",
			req: workflow.ApprovalRequest{
				Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_500_000), Policy: policy,
				ActorID: other, FirstApprover: &actor, AwaitingSecond: true,
			},
			outcome: workflow.OutcomeSecondStageRecorded,
			stage:   model.ApprovalStageSecond,
		},
		{
			name: "latched requirement ignores a removed policy",
			req: workflow.ApprovalRequest{
				Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_500_000),
				ActorID: other, FirstApprover: &actor, AwaitingSecond: true,
			},
			outcome: workflow.OutcomeSecondStageRecorded,
			stage:   model.ApprovalStageSecond,
		},
		{
			name: "unlimited authority still needs a distinct second approver",
			req: workflow.ApprovalRequest{
				Kind: model.EntityChangeOrder, Amount: decimal.NewFromInt(1_500_000), Policy: policy,
				ActorID: actor, FirstApprover: &actor, AwaitingSecond: true, UnlimitedAuthority: true,
			},
			err: workflow.ErrDualApprovalSameUser,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := workflow.Decide(tc.req)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, decision.Outcome)
			assert.Equal(t, tc.stage, decision.Stage)
			assert.Equal(t, tc.outcome != workflow.OutcomeFinalApproved, decision.RequiresDualApproval)
		})
	}
}

func TestDecision_Apply(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	var trail model.ApprovalTrail
	workflow.Decision{Outcome: workflow.OutcomeFinalApproved}.Apply(&trail, first, at)
	assert.Equal(t, model.ApprovalTrail{}, trail)

	workflow.Decision{Outcome: workflow.OutcomeFirstStageRecorded}.Apply(&trail, first, at)
	require.NotNil(t, trail.FirstApprovedBy)
	assert.Equal(t, first, *trail.FirstApprovedBy)
	assert.True(t, trail.RequiresDualApproval)
	assert.True(t, trail.AwaitingSecond())

	workflow.Decision{Outcome: workflow.OutcomeSecondStageRecorded}.Apply(&trail, second, at.Add(time.Hour))
	require.NotNil(t, trail.SecondApprovedBy)
	assert.Equal(t, second, *trail.SecondApprovedBy)
	assert.Equal(t, at.Add(time.Hour), *trail.SecondApprovedAt)
	assert.False(t, trail.AwaitingSecond())
}
