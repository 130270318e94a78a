package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/snowops-costcontrol/internal/metrics"
	"github.com/nurpe/snowops-costcontrol/internal/model"
)

// OutcomeApplied marks a non-approval transition.
const OutcomeApplied Outcome = "applied"

type rule struct {
	from     string
	to       string
	approval bool
}

var rules = map[model.EntityKind]map[model.Action]rule{
	model.EntityChangeOrder: {
		model.ActionPropose: {from: string(model.ChangeOrderStatusDraft), to: string(model.ChangeOrderStatusProposed)},
		model.ActionApprove: {from: string(model.ChangeOrderStatusProposed), to: string(model.ChangeOrderStatusApproved), approval: true},
		model.ActionReject:  {from: string(model.ChangeOrderStatusProposed), to: string(model.ChangeOrderStatusRejected)},
	},
	model.EntityPaymentCertificate: {
		model.ActionSubmit:  {from: string(model.CertificateStatusDraft), to: string(model.CertificateStatusSubmitted)},
		model.ActionApprove: {from: string(model.CertificateStatusSubmitted), to: string(model.CertificateStatusApproved), approval: true},
		model.ActionReject:  {from: string(model.CertificateStatusSubmitted), to: string(model.CertificateStatusRejected)},
	},
	model.EntityActualPayment: {
		model.ActionMarkPaid: {from: string(model.PaymentStatusPlanned), to: string(model.PaymentStatusPaid), approval: true},
	},
}

// Allowed reports whether kind supports action at all, regardless of status.
func Allowed(kind model.EntityKind, action model.Action) bool {
	_, ok := rules[kind][action]
	return ok
}

type Request struct {
	Scope              model.Scope
	Kind               model.EntityKind
	EntityID           uuid.UUID
	Action             model.Action
	ActorID            uuid.UUID
	UnlimitedAuthority bool
}

type Result struct {
	Kind                 model.EntityKind    `json:"entity_type"`
	EntityID             uuid.UUID           `json:"entity_id"`
	PreviousStatus       string              `json:"previous_status"`
	NewStatus            string              `json:"new_status"`
	Outcome              Outcome             `json:"outcome,omitempty"`
	ApprovalStage        model.ApprovalStage `json:"approval_stage,omitempty"`
	RequiresDualApproval bool                `json:"requires_dual_approval"`
	Audit                model.AuditFact     `json:"-"`
}

type Machine struct {
	store Store
	now   func() time.Time
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func NewMachine(store Store, opts ...Option) *Machine {
	m := &Machine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attempt validates and commits one transition. Status, approver fields and
// the audit fact are written in the same transaction or not at all.
func (m *Machine) Attempt(ctx context.Context, req Request) (*Result, error) {
	r, ok := rules[req.Kind][req.Action]
	if !ok {
		metrics.ObserveTransition(string(req.Kind), string(req.Action), "unsupported")
		return nil, fmt.Errorf("%w: %s cannot %s", ErrUnsupportedAction, req.Kind, req.Action)
	}

	var result *Result
	err := m.store.InTx(ctx, func(tx Tx) error {
		subject, err := tx.LockSubject(ctx, req.Scope, req.Kind, req.EntityID)
		if err != nil {
			return err
		}
		res, err := m.apply(ctx, tx, subject, r, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		metrics.ObserveTransition(string(req.Kind), string(req.Action), outcomeLabel(err))
		return nil, err
	}

	metrics.ObserveTransition(string(req.Kind), string(req.Action), string(result.Outcome))
	return result, nil
}

func (m *Machine) apply(ctx context.Context, tx Tx, subject *Subject, r rule, req Request) (*Result, error) {
	now := m.now().UTC()
	from := subject.Status

	awaitingSecond := r.approval && subject.Status == r.to && subject.Approval.AwaitingSecond()
	if !awaitingSecond {
		if req.Kind == model.EntityActualPayment && subject.Status == string(model.PaymentStatusPaid) {
			return nil, ErrAlreadyPaid
		}
		if subject.Status != r.from {
			return nil, fmt.Errorf("%w: cannot %s %s in status %s", ErrInvalidStatusTransition, req.Action, req.Kind, subject.Status)
		}
	}

	decision := Decision{Outcome: OutcomeFinalApproved}
	if r.approval {
		policy, err := tx.ApprovalPolicy(ctx, req.Scope.TenantID)
		if err != nil {
			return nil, err
		}
		decision, err = Decide(ApprovalRequest{
			Kind:               req.Kind,
			Amount:             subject.Amount,
			Policy:             policy,
			ActorID:            req.ActorID,
			UnlimitedAuthority: req.UnlimitedAuthority,
			FirstApprover:      subject.Approval.FirstApprovedBy,
			AwaitingSecond:     awaitingSecond,
		})
		if err != nil {
			return nil, err
		}
		decision.Apply(&subject.Approval, req.ActorID, now)
	}

	subject.Status = r.to
	if req.Kind == model.EntityActualPayment && subject.Status == string(model.PaymentStatusPaid) && subject.PaidDate == nil {
		subject.PaidDate = &now
	}
	if err := tx.SaveSubject(ctx, subject); err != nil {
		return nil, err
	}

	fact := model.AuditFact{
		ID:         uuid.New(),
		TenantID:   req.Scope.TenantID,
		ProjectID:  req.Scope.ProjectID,
		EntityType: req.Kind,
		EntityID:   subject.ID,
		ActorID:    req.ActorID,
		Action:     auditAction(req.Kind, r, decision),
		FromStatus: from,
		ToStatus:   subject.Status,
		Amount:     subject.Amount,
		Stage:      decision.Stage,
		CreatedAt:  now,
	}
	if err := tx.Emit(ctx, fact); err != nil {
		return nil, err
	}

	result := &Result{
		Kind:                 req.Kind,
		EntityID:             subject.ID,
		PreviousStatus:       from,
		NewStatus:            subject.Status,
		ApprovalStage:        decision.Stage,
		RequiresDualApproval: subject.Approval.RequiresDualApproval,
		Audit:                fact,
	}
	if r.approval {
		result.Outcome = decision.Outcome
	} else {
		result.Outcome = OutcomeApplied
	}
	return result, nil
}

func auditAction(kind model.EntityKind, r rule, decision Decision) string {
	switch decision.Stage {
	case model.ApprovalStageFirst:
		return fmt.Sprintf("%s.first_approved", kind)
	case model.ApprovalStageSecond:
		return fmt.Sprintf("%s.second_approved", kind)
	default:
		return fmt.Sprintf("%s.%s", kind, r.to)
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidStatusTransition):
		return "invalid_transition"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrDualApprovalSameUser):
		return "same_approver"
	case errors.Is(err, ErrEntityNotFound):
		return "not_found"
	default:
		return "error"
	}
}
