// Package memstore provides an in-process implementation of every repository
// interface. Values are copied on the way in and out so callers never share
// memory with the store. A transaction holds the store exclusively until it
// commits or rolls back: operations outside it wait, so uncommitted writes
// are never visible to other callers. Rollback replays an undo log kept in
// the context.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository"
)

var (
	_ repository.ProjectRepository            = (*Store)(nil)
	_ repository.Transactor                   = (*Store)(nil)
	_ repository.DB                           = (*Store)(nil)
	_ repository.LaborEntryRepository         = LaborEntries{}
	_ repository.MaterialEntryRepository      = MaterialEntries{}
	_ repository.SubcontractorEntryRepository = SubcontractorEntries{}
)

// Store holds projects, actuals and the three entry collections.
type Store struct {
	// txMu is held for a whole transaction, or for a single operation
	// outside one.
	txMu sync.Mutex

	mu            sync.RWMutex
	projects      map[string]*model.Project
	actuals       map[string]*model.ProjectActuals
	labor         map[string][]*model.LaborEntry
	material      map[string][]*model.MaterialEntry
	subcontractor map[string][]*model.SubcontractorEntry
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		projects:      make(map[string]*model.Project),
		actuals:       make(map[string]*model.ProjectActuals),
		labor:         make(map[string][]*model.LaborEntry),
		material:      make(map[string][]*model.MaterialEntry),
		subcontractor: make(map[string][]*model.SubcontractorEntry),
	}
}

// PutProject はプロジェクトを登録または置換する。Actuals は無視する。
func (s *Store) PutProject(p *model.Project) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.Actuals = nil
	if p.Estimate != nil {
		est := *p.Estimate
		cp.Estimate = &est
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
		cp.UpdatedAt = cp.CreatedAt
	}
	s.projects[cp.ID] = &cp
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

type txKey struct{}

type undoLog struct {
	mu    sync.Mutex
	steps []func()
}

func (u *undoLog) push(step func()) {
	u.mu.Lock()
	u.steps = append(u.steps, step)
	u.mu.Unlock()
}

// WithinTx runs fn with the store held exclusively and reverts every write fn
// made through the store if fn fails. Nested calls join the outer transaction.
// Store calls inside fn must use the ctx passed to fn.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		s.mu.Lock()
		for i := len(log.steps) - 1; i >= 0; i-- {
			log.steps[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*undoLog)
	return ok
}

// acquire takes the store for one operation unless ctx already runs inside
// a transaction, which holds it.
func (s *Store) acquire(ctx context.Context) (release func()) {
	if inTx(ctx) {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// recordUndo must be called with s.mu held.
func recordUndo(ctx context.Context, step func()) {
	if log, ok := ctx.Value(txKey{}).(*undoLog); ok {
		log.push(step)
	}
}

// ---------------------------------------------------------------------------
// ProjectRepository
// ---------------------------------------------------------------------------

// GetByID returns a copy of the project with its actuals attached.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Project, error) {
	defer s.acquire(ctx)()
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	if p.Estimate != nil {
		est := *p.Estimate
		cp.Estimate = &est
	}
	if a, ok := s.actuals[id]; ok {
		cp.Actuals = copyActuals(a)
	}
	return &cp, nil
}

// CreateActuals stores a new actuals record at version 0.
func (s *Store) CreateActuals(ctx context.Context, a *model.ProjectActuals) error {
	defer s.acquire(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[a.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.actuals[a.ProjectID]; ok {
		return repository.ErrConflict
	}
	a.Version = 0
	s.actuals[a.ProjectID] = copyActuals(a)
	projectID := a.ProjectID
	recordUndo(ctx, func() { delete(s.actuals, projectID) })
	return nil
}

// UpdateActuals replaces the record when the stored version equals expectedVersion.
func (s *Store) UpdateActuals(ctx context.Context, a *model.ProjectActuals, expectedVersion int64) error {
	defer s.acquire(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.actuals[a.ProjectID]
	if !ok || prev.Version != expectedVersion {
		return repository.ErrConflict
	}
	a.Version = expectedVersion + 1
	stored := copyActuals(a)
	s.actuals[a.ProjectID] = stored
	recordUndo(ctx, func() {
		if s.actuals[stored.ProjectID] == stored {
			s.actuals[stored.ProjectID] = prev
		}
	})
	return nil
}

// ListIDsWithActuals returns project ids in lexical order.
func (s *Store) ListIDsWithActuals(ctx context.Context) ([]string, error) {
	defer s.acquire(ctx)()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.actuals))
	for id := range s.actuals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ---------------------------------------------------------------------------
// Entry repositories
// ---------------------------------------------------------------------------

// LaborEntries returns the labor entry view of the store.
func (s *Store) LaborEntries() LaborEntries { return LaborEntries{s} }

// MaterialEntries returns the material entry view of the store.
func (s *Store) MaterialEntries() MaterialEntries { return MaterialEntries{s} }

// SubcontractorEntries returns the subcontractor entry view of the store.
func (s *Store) SubcontractorEntries() SubcontractorEntries { return SubcontractorEntries{s} }

// LaborEntries implements repository.LaborEntryRepository.
type LaborEntries struct{ s *Store }

func (v LaborEntries) Create(ctx context.Context, e *model.LaborEntry) error {
	cp := *e
	return appendEntry(ctx, v.s, v.s.labor, &cp, cp.ProjectID, cp.ID, func(x *model.LaborEntry) string { return x.ID })
}

func (v LaborEntries) ListByProjectID(ctx context.Context, projectID string) ([]*model.LaborEntry, error) {
	return listEntries(ctx, v.s, v.s.labor, projectID, func(e *model.LaborEntry) *model.LaborEntry {
		cp := *e
		return &cp
	}), nil
}

// MaterialEntries implements repository.MaterialEntryRepository.
type MaterialEntries struct{ s *Store }

func (v MaterialEntries) Create(ctx context.Context, e *model.MaterialEntry) error {
	cp := *e
	return appendEntry(ctx, v.s, v.s.material, &cp, cp.ProjectID, cp.ID, func(x *model.MaterialEntry) string { return x.ID })
}

func (v MaterialEntries) ListByProjectID(ctx context.Context, projectID string) ([]*model.MaterialEntry, error) {
	return listEntries(ctx, v.s, v.s.material, projectID, func(e *model.MaterialEntry) *model.MaterialEntry {
		cp := *e
		return &cp
	}), nil
}

// SubcontractorEntries implements repository.SubcontractorEntryRepository.
type SubcontractorEntries struct{ s *Store }

func (v SubcontractorEntries) Create(ctx context.Context, e *model.SubcontractorEntry) error {
	cp := copySubcontractorEntry(e)
	return appendEntry(ctx, v.s, v.s.subcontractor, cp, cp.ProjectID, cp.ID, func(x *model.SubcontractorEntry) string { return x.ID })
}

func (v SubcontractorEntries) ListByProjectID(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error) {
	return listEntries(ctx, v.s, v.s.subcontractor, projectID, copySubcontractorEntry), nil
}

func appendEntry[T any](ctx context.Context, s *Store, byProject map[string][]*T, e *T, projectID, id string, idOf func(*T) string) error {
	defer s.acquire(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return repository.ErrNotFound
	}
	byProject[projectID] = append(byProject[projectID], e)
	recordUndo(ctx, func() {
		list := byProject[projectID]
		for i := range list {
			if idOf(list[i]) == id {
				byProject[projectID] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	})
	return nil
}

func listEntries[T any](ctx context.Context, s *Store, byProject map[string][]*T, projectID string, clone func(*T) *T) []*T {
	defer s.acquire(ctx)()
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := byProject[projectID]
	out := make([]*T, 0, len(list))
	for _, e := range list {
		out = append(out, clone(e))
	}
	return out
}

// ---------------------------------------------------------------------------
// Copies
// ---------------------------------------------------------------------------

func copySubcontractorEntry(e *model.SubcontractorEntry) *model.SubcontractorEntry {
	cp := *e
	cp.Payments = append([]model.SubcontractorPayment{}, e.Payments...)
	return &cp
}

func copyActuals(a *model.ProjectActuals) *model.ProjectActuals {
	cp := *a
	cp.LaborEntries = make([]*model.LaborEntry, 0, len(a.LaborEntries))
	for _, e := range a.LaborEntries {
		x := *e
		cp.LaborEntries = append(cp.LaborEntries, &x)
	}
	cp.MaterialEntries = make([]*model.MaterialEntry, 0, len(a.MaterialEntries))
	for _, e := range a.MaterialEntries {
		x := *e
		cp.MaterialEntries = append(cp.MaterialEntries, &x)
	}
	cp.SubcontractorEntries = make([]*model.SubcontractorEntry, 0, len(a.SubcontractorEntries))
	for _, e := range a.SubcontractorEntries {
		cp.SubcontractorEntries = append(cp.SubcontractorEntries, copySubcontractorEntry(e))
	}
	cp.DailyLogs = append([]model.DailyLog{}, a.DailyLogs...)
	cp.ChangeOrders = append([]model.ChangeOrder{}, a.ChangeOrders...)
	return &cp
}
