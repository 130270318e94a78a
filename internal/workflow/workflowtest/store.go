// Package workflowtest provides an in-memory workflow.Store for tests.
package workflowtest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nurpe/snowops-costcontrol/internal/model"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
)

type key struct {
	kind model.EntityKind
	id   uuid.UUID
}

// Store serializes whole transactions behind one mutex and applies writes only
// when the transaction function returns nil.
type Store struct {
	mu       sync.Mutex
	subjects map[key]workflow.Subject
	policies map[uuid.UUID]model.CostApprovalPolicy
	facts    []model.AuditFact

	// FailEmit makes every Emit call fail, to exercise rollback.
	FailEmit error
}

func NewStore() *Store {
	return &Store{
		subjects: make(map[key]workflow.Subject),
		policies: make(map[uuid.UUID]model.CostApprovalPolicy),
	}
}

func (s *Store) Put(subject workflow.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[key{subject.Kind, subject.ID}] = subject
}

func (s *Store) Get(kind model.EntityKind, id uuid.UUID) (workflow.Subject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.subjects[key{kind, id}]
	return subject, ok
}

func (s *Store) SetPolicy(policy model.CostApprovalPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.TenantID] = policy
}

func (s *Store) Facts() []model.AuditFact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditFact, len(s.facts))
	copy(out, s.facts)
	return out
}

func (s *Store) InTx(ctx context.Context, fn func(tx workflow.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, pending: make(map[key]workflow.Subject)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, subject := range tx.pending {
		s.subjects[k] = subject
	}
	s.facts = append(s.facts, tx.facts...)
	return nil
}

type memTx struct {
	store   *Store
	pending map[key]workflow.Subject
	facts   []model.AuditFact
}

func (t *memTx) LockSubject(_ context.Context, scope model.Scope, kind model.EntityKind, id uuid.UUID) (*workflow.Subject, error) {
	subject, ok := t.store.subjects[key{kind, id}]
	if !ok || subject.Scope != scope {
		return nil, workflow.ErrEntityNotFound
	}
	return &subject, nil
}

func (t *memTx) ApprovalPolicy(_ context.Context, tenantID uuid.UUID) (*model.CostApprovalPolicy, error) {
	policy, ok := t.store.policies[tenantID]
	if !ok {
		return nil, nil
	}
	return &policy, nil
}

func (t *memTx) SaveSubject(_ context.Context, subject *workflow.Subject) error {
	t.pending[key{subject.Kind, subject.ID}] = *subject
	return nil
}

func (t *memTx) Emit(_ context.Context, fact model.AuditFact) error {
	if t.store.FailEmit != nil {
		return t.store.FailEmit
	}
	t.facts = append(t.facts, fact)
	return nil
}
