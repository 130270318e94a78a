package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

type Outcome string

const (
	OutcomeFinalApproved       Outcome = "final_approved"
	OutcomeFirstStageRecorded  Outcome = "first_stage_recorded"
	OutcomeSecondStageRecorded Outcome = "second_stage_recorded"
)

// ApprovalRequest is one approval attempt on one entity. Policy may be nil
// when the tenant has no policy row.
type ApprovalRequest struct {
	Kind               model.EntityKind
	Amount             decimal.Decimal
	Policy             *model.CostApprovalPolicy
	ActorID            uuid.UUID
	UnlimitedAuthority bool
	FirstApprover      *uuid.UUID
	// AwaitingSecond is set once a first-stage approval has latched the dual
	// requirement. The threshold is not re-evaluated after that point.
	AwaitingSecond bool
}

type Decision struct {
	Outcome              Outcome
	Stage                model.ApprovalStage
	RequiresDualApproval bool
}

// Decide resolves whether an approval is single-stage, the first of two
// stages or the closing second stage.
func Decide(req ApprovalRequest) (Decision, error) {
	if req.AwaitingSecond {
		return closeSecondStage(req)
	}
	if req.UnlimitedAuthority {
		return Decision{Outcome: OutcomeFinalApproved}, nil
	}

	threshold, ok := req.Policy.Threshold(req.Kind)
	if !ok || !req.Amount.Abs().GreaterThan(threshold) {
		return Decision{Outcome: OutcomeFinalApproved}, nil
	}
	if req.FirstApprover == nil {
		return Decision{
			Outcome:              OutcomeFirstStageRecorded,
			Stage:                model.ApprovalStageFirst,
			RequiresDualApproval: true,
		}, nil
	}
	return closeSecondStage(req)
}

func closeSecondStage(req ApprovalRequest) (Decision, error) {
	if req.FirstApprover == nil {
		return Decision{
			Outcome:              OutcomeFirstStageRecorded,
			Stage:                model.ApprovalStageFirst,
			RequiresDualApproval: true,
		}, nil
	}
	if *req.FirstApprover == req.ActorID {
		return Decision{}, ErrDualApprovalSameUser
	}
	return Decision{
		Outcome:              OutcomeSecondStageRecorded,
		Stage:                model.ApprovalStageSecond,
		RequiresDualApproval: true,
	}, nil
}

// Apply writes the decision onto the approval trail. A final single-stage
// approval leaves the trail untouched.
func (d Decision) Apply(trail *model.ApprovalTrail, actorID uuid.UUID, at time.Time) {
	switch d.Outcome {
	case OutcomeFirstStageRecorded:
		trail.RequiresDualApproval = true
		trail.FirstApprovedBy = &actorID
		trail.FirstApprovedAt = &at
	case OutcomeSecondStageRecorded:
		trail.SecondApprovedBy = &actorID
		trail.SecondApprovedAt = &at
	}
}
