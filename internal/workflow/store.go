package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

// Subject is the kind-independent view of a change order, certificate or
// payment that the state machine operates on.
type Subject struct {
	Kind     model.EntityKind
	ID       uuid.UUID
	Scope    model.Scope
	Status   string
	Amount   decimal.Decimal
	Approval model.ApprovalTrail
	PaidDate *time.Time
}

// AuditEmitter receives one fact per committed transition.
type AuditEmitter interface {
	Emit(ctx context.Context, fact model.AuditFact) error
}

// Tx is a ledger view bound to a single transaction. LockSubject must hold a
// row lock on the entity until the transaction ends so that concurrent
// approvals of the same entity are serialized.
type Tx interface {
	AuditEmitter
	LockSubject(ctx context.Context, scope model.Scope, kind model.EntityKind, id uuid.UUID) (*Subject, error)
	ApprovalPolicy(ctx context.Context, tenantID uuid.UUID) (*model.CostApprovalPolicy, error)
	SaveSubject(ctx context.Context, subject *Subject) error
}

// Store commits everything done through the Tx passed to fn, or nothing when
// fn returns an error.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
