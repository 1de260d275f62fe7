// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"festivalcore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Admin aliases domain.Admin for in-memory persistence operations.
	Admin = domain.Admin
	// News aliases domain.News.
	News = domain.News
	// Goods aliases domain.Goods.
	Goods = domain.Goods
	// EventTicketInfo aliases domain.EventTicketInfo.
	EventTicketInfo = domain.EventTicketInfo
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// entity is satisfied by every stored record type.
type entity[T any] interface {
	Clone() T
}

// record gives helpers access to the shared metadata of *T.
type record[T any] interface {
	*T
	GetBase() *domain.Base
}

type memoryState struct {
	admins  map[string]Admin
	news    map[string]News
	goods   map[string]Goods
	tickets map[string]EventTicketInfo
}

func newMemoryState() memoryState {
	return memoryState{
		admins:  make(map[string]Admin),
		news:    make(map[string]News),
		goods:   make(map[string]Goods),
		tickets: make(map[string]EventTicketInfo),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		admins:  cloneBucket(s.admins),
		news:    cloneBucket(s.news),
		goods:   cloneBucket(s.goods),
		tickets: cloneBucket(s.tickets),
	}
}

func cloneBucket[T entity[T]](in map[string]T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// Store provides an in-memory transactional store for the festival domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RestoreState validates every record in snapshot and replaces the store
// state with it. Records keep their identifiers and timestamps.
func (s *Store) RestoreState(_ context.Context, snapshot Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	s.ImportState(snapshot)
	return nil
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn succeeds and no rule
// blocks the recorded changes.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// transaction represents a mutation set applied to a copy of the store state.
type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func findEntity[T entity[T]](bucket map[string]T, id string) (T, bool) {
	v, ok := bucket[id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.Clone(), true
}

func countEntities[T any](bucket map[string]T, match func(T) bool) int {
	n := 0
	for _, v := range bucket {
		if match == nil || match(v) {
			n++
		}
	}
	return n
}

func createEntity[T entity[T], P record[T]](tx *transaction, bucket map[string]T, kind domain.EntityType, v T) (T, error) {
	base := P(&v).GetBase()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if _, exists := bucket[base.ID]; exists {
		var zero T
		return zero, fmt.Errorf("%s %q already exists", kind, base.ID)
	}
	base.CreatedAt = tx.now
	base.UpdatedAt = tx.now
	bucket[base.ID] = v.Clone()
	tx.recordChange(Change{Entity: kind, Action: domain.ActionCreate, After: v.Clone()})
	return v.Clone(), nil
}

func updateEntity[T entity[T], P record[T]](tx *transaction, bucket map[string]T, kind domain.EntityType, id string, mutator func(*T) error) (T, error) {
	current, ok := bucket[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q not found", kind, id)
	}
	before := current.Clone()
	current = current.Clone()
	if err := mutator(&current); err != nil {
		var zero T
		return zero, err
	}
	base := P(&current).GetBase()
	prev := P(&before).GetBase()
	base.ID = id
	base.CreatedAt = prev.CreatedAt
	base.UpdatedAt = tx.now
	bucket[id] = current.Clone()
	tx.recordChange(Change{Entity: kind, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

func deleteEntity[T entity[T]](tx *transaction, bucket map[string]T, kind domain.EntityType, id string) error {
	current, ok := bucket[id]
	if !ok {
		return fmt.Errorf("%s %q not found", kind, id)
	}
	delete(bucket, id)
	tx.recordChange(Change{Entity: kind, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// listEntities returns clones ordered by creation time, then identifier.
func listEntities[T entity[T], P record[T]](bucket map[string]T) []T {
	out := make([]T, 0, len(bucket))
	for _, v := range bucket {
		out = append(out, v.Clone())
	}
	slices.SortFunc(out, func(a, b T) int {
		ab, bb := P(&a).GetBase(), P(&b).GetBase()
		if c := ab.CreatedAt.Compare(bb.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(ab.ID, bb.ID)
	})
	return out
}

// FindAdmin exposes admin lookup within the transaction scope.
func (tx *transaction) FindAdmin(id string) (Admin, bool) { return findEntity(tx.state.admins, id) }

// CountAdmins counts admins matching match.
func (tx *transaction) CountAdmins(match func(Admin) bool) int {
	return countEntities(tx.state.admins, match)
}

// CreateAdmin stores a new admin account.
func (tx *transaction) CreateAdmin(a Admin) (Admin, error) {
	return createEntity(tx, tx.state.admins, domain.EntityAdmin, a)
}

// UpdateAdmin mutates an admin account using the provided mutator function.
func (tx *transaction) UpdateAdmin(id string, mutator func(*Admin) error) (Admin, error) {
	return updateEntity(tx, tx.state.admins, domain.EntityAdmin, id, mutator)
}

// DeleteAdmin removes an admin account.
func (tx *transaction) DeleteAdmin(id string) error {
	return deleteEntity(tx, tx.state.admins, domain.EntityAdmin, id)
}

// FindNews exposes article lookup within the transaction scope.
func (tx *transaction) FindNews(id string) (News, bool) { return findEntity(tx.state.news, id) }

// CountNews counts articles matching match.
func (tx *transaction) CountNews(match func(News) bool) int {
	return countEntities(tx.state.news, match)
}

// CreateNews stores a new article.
func (tx *transaction) CreateNews(n News) (News, error) {
	return createEntity(tx, tx.state.news, domain.EntityNews, n)
}

// UpdateNews mutates an article.
func (tx *transaction) UpdateNews(id string, mutator func(*News) error) (News, error) {
	return updateEntity(tx, tx.state.news, domain.EntityNews, id, mutator)
}

// DeleteNews removes an article.
func (tx *transaction) DeleteNews(id string) error {
	return deleteEntity(tx, tx.state.news, domain.EntityNews, id)
}

// FindGoods exposes goods lookup within the transaction scope.
func (tx *transaction) FindGoods(id string) (Goods, bool) { return findEntity(tx.state.goods, id) }

// CountGoods counts goods matching match.
func (tx *transaction) CountGoods(match func(Goods) bool) int {
	return countEntities(tx.state.goods, match)
}

// CreateGoods stores a new goods item.
func (tx *transaction) CreateGoods(g Goods) (Goods, error) {
	return createEntity(tx, tx.state.goods, domain.EntityGoods, g)
}

// UpdateGoods mutates a goods item.
func (tx *transaction) UpdateGoods(id string, mutator func(*Goods) error) (Goods, error) {
	return updateEntity(tx, tx.state.goods, domain.EntityGoods, id, mutator)
}

// DeleteGoods removes a goods item.
func (tx *transaction) DeleteGoods(id string) error {
	return deleteEntity(tx, tx.state.goods, domain.EntityGoods, id)
}

// FindEventTicketInfo exposes ticket event lookup within the transaction scope.
func (tx *transaction) FindEventTicketInfo(id string) (EventTicketInfo, bool) {
	return findEntity(tx.state.tickets, id)
}

// CountEventTicketInfos counts ticket events matching match.
func (tx *transaction) CountEventTicketInfos(match func(EventTicketInfo) bool) int {
	return countEntities(tx.state.tickets, match)
}

// CreateEventTicketInfo stores a new ticket event.
func (tx *transaction) CreateEventTicketInfo(e EventTicketInfo) (EventTicketInfo, error) {
	return createEntity(tx, tx.state.tickets, domain.EntityEventTicketInfo, e)
}

// UpdateEventTicketInfo mutates a ticket event.
func (tx *transaction) UpdateEventTicketInfo(id string, mutator func(*EventTicketInfo) error) (EventTicketInfo, error) {
	return updateEntity(tx, tx.state.tickets, domain.EntityEventTicketInfo, id, mutator)
}

// DeleteEventTicketInfo removes a ticket event.
func (tx *transaction) DeleteEventTicketInfo(id string) error {
	return deleteEntity(tx, tx.state.tickets, domain.EntityEventTicketInfo, id)
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListAdmins returns all admins within the snapshot.
func (v transactionView) ListAdmins() []Admin { return listEntities(v.state.admins) }

// ListNews returns all articles within the snapshot.
func (v transactionView) ListNews() []News { return listEntities(v.state.news) }

// ListGoods returns all goods within the snapshot.
func (v transactionView) ListGoods() []Goods { return listEntities(v.state.goods) }

// ListEventTicketInfos returns all ticket events within the snapshot.
func (v transactionView) ListEventTicketInfos() []EventTicketInfo {
	return listEntities(v.state.tickets)
}

// FindAdmin retrieves an admin by ID.
func (v transactionView) FindAdmin(id string) (Admin, bool) { return findEntity(v.state.admins, id) }

// FindNews retrieves an article by ID.
func (v transactionView) FindNews(id string) (News, bool) { return findEntity(v.state.news, id) }

// FindGoods retrieves a goods item by ID.
func (v transactionView) FindGoods(id string) (Goods, bool) { return findEntity(v.state.goods, id) }

// FindEventTicketInfo retrieves a ticket event by ID.
func (v transactionView) FindEventTicketInfo(id string) (EventTicketInfo, bool) {
	return findEntity(v.state.tickets, id)
}
