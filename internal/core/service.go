package core

import (
	"context"
	"errors"
	"fmt"

	"festivalcore/internal/infra/persistence/memory"
	"festivalcore/pkg/domain"
)

// PersistentStore is the store contract the service runs against.
type PersistentStore = domain.PersistentStore

// Service exposes transactional CRUD and safe update operations for the
// festival entities.
type Service struct {
	store   PersistentStore
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:   store,
		clock:   o.clock,
		logger:  o.logger,
		audit:   o.audit,
		metrics: o.metrics,
		tracer:  o.tracer,
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// ErrNotFound is returned when an entity lookup misses.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrForbidden is returned when the caller lacks the permission an operation requires.
type ErrForbidden struct {
	Operation  string
	Permission Permission
}

func (e ErrForbidden) Error() string {
	return fmt.Sprintf("%s requires the %s permission", e.Operation, e.Permission)
}

// errSkipCommit aborts a transaction whose decision was reached without writes.
var errSkipCommit = errors.New("skip commit")

// operation describes a service call for tracing, metrics and audit.
type operation struct {
	name   string
	entity EntityType
	action Action
	actor  string
}

// result is what an operation body reports back to run.
type result struct {
	entityID string
	outcome  string
}

func (s *Service) run(ctx context.Context, op operation, fn func(context.Context) (result, error)) error {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op.name)
	res, err := fn(ctx)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op.name, err == nil, duration)

	entry := AuditEntry{
		Timestamp: s.clock.Now(),
		Operation: op.name,
		Entity:    op.entity,
		Action:    op.action,
		EntityID:  res.entityID,
		Actor:     op.actor,
		Status:    AuditStatusSuccess,
		Outcome:   res.outcome,
		Duration:  duration,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Error("operation failed", "operation", op.name, "entity_id", res.entityID, "actor", op.actor, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", op.name, "entity_id", res.entityID, "outcome", res.outcome, "duration", duration)
	}
	s.audit.Record(ctx, entry)
	return err
}

// requiredPermission maps an entity kind to the permission needed to create
// or delete it.
func requiredPermission(kind EntityType) Permission {
	switch kind {
	case EntityAdmin:
		return domain.PermissionAdmin
	case EntityNews:
		return domain.PermissionNews
	case EntityGoods:
		return domain.PermissionGoods
	default:
		return domain.PermissionTicket
	}
}

func authorize(caller Caller, op string, kind EntityType) error {
	need := requiredPermission(kind)
	if !caller.Permissions.Has(need) {
		return ErrForbidden{Operation: op, Permission: need}
	}
	return nil
}
