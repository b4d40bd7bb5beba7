package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alldopamine/catalog/internal/domain"
)

// memStore is an in-memory catalog. InTx holds the store lock for the whole
// function and restores a snapshot when it fails.
type memStore struct {
	mu       sync.Mutex
	works    map[int64]*domain.Work
	mappings map[int64]*domain.PlatformMapping
	sources  map[int64]domain.SourceRecord
	nextID   int64

	lockedKeys []string
	// mappingConflicts makes the next n mapping saves fail with a conflict.
	mappingConflicts int
	txCount          int
}

func newMemStore() *memStore {
	return &memStore{
		works:    map[int64]*domain.Work{},
		mappings: map[int64]*domain.PlatformMapping{},
		sources:  map[int64]domain.SourceRecord{},
	}
}

type snapshot struct {
	works    map[int64]*domain.Work
	mappings map[int64]*domain.PlatformMapping
	nextID   int64
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		works:    make(map[int64]*domain.Work, len(s.works)),
		mappings: make(map[int64]*domain.PlatformMapping, len(s.mappings)),
		nextID:   s.nextID,
	}
	for id, w := range s.works {
		snap.works[id] = cloneWork(w)
	}
	for id, m := range s.mappings {
		snap.mappings[id] = m.Clone()
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.works = snap.works
	s.mappings = snap.mappings
	s.nextID = snap.nextID
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	snap := s.snapshot()
	err := fn(ctx, s.repos(true))
	if err != nil {
		s.restore(snap)
	}
	return err
}

func (s *memStore) Repositories() Repositories {
	return s.repos(false)
}

func (s *memStore) repos(inTx bool) Repositories {
	r := &memRepo{s: s, inTx: inTx}
	return Repositories{
		Works:    (*memWorkRepo)(r),
		Mappings: (*memMappingRepo)(r),
		Sources:  (*memSourceRepo)(r),
	}
}

func (s *memStore) addWork(w *domain.Work) *domain.Work {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	w.ID = s.nextID
	s.works[w.ID] = cloneWork(w)
	return w
}

func (s *memStore) addMapping(m *domain.PlatformMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[m.WorkID] = m.Clone()
}

func (s *memStore) addSource(rec domain.SourceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[rec.ID] = rec
}

func (s *memStore) workCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.works)
}

func (s *memStore) work(id int64) *domain.Work {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.works[id]; ok {
		return cloneWork(w)
	}
	return nil
}

func (s *memStore) mapping(workID int64) *domain.PlatformMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.mappings[workID]; ok {
		return m.Clone()
	}
	return nil
}

func cloneWork(w *domain.Work) *domain.Work {
	c := *w
	if w.Attributes != nil {
		c.Attributes = w.Attributes.Clone()
	}
	return &c
}

type memRepo struct {
	s    *memStore
	inTx bool
}

func (r *memRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

type memWorkRepo memRepo

func (r *memWorkRepo) base() *memRepo { return (*memRepo)(r) }

func (r *memWorkRepo) FindByID(ctx context.Context, id int64) (*domain.Work, error) {
	defer r.base().lock()()
	w, ok := r.s.works[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "work"}
	}
	return cloneWork(w), nil
}

func (r *memWorkRepo) FindByDomainAndAuthorKey(ctx context.Context, d domain.Domain, key string) ([]*domain.Work, error) {
	defer r.base().lock()()
	var out []*domain.Work
	for _, id := range r.sortedIDs() {
		w := r.s.works[id]
		if w.Domain == d && w.AuthorKey() == key {
			out = append(out, cloneWork(w))
		}
	}
	return out, nil
}

func (r *memWorkRepo) FindByDomain(ctx context.Context, d domain.Domain) ([]*domain.Work, error) {
	defer r.base().lock()()
	var out []*domain.Work
	for _, id := range r.sortedIDs() {
		if w := r.s.works[id]; w.Domain == d {
			out = append(out, cloneWork(w))
		}
	}
	return out, nil
}

func (r *memWorkRepo) Save(ctx context.Context, w *domain.Work) error {
	defer r.base().lock()()
	now := time.Now()
	if w.ID == 0 {
		r.s.nextID++
		w.ID = r.s.nextID
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	r.s.works[w.ID] = cloneWork(w)
	return nil
}

func (r *memWorkRepo) Delete(ctx context.Context, id int64) error {
	defer r.base().lock()()
	if _, ok := r.s.works[id]; !ok {
		return domain.NotFoundError{Resource: "work"}
	}
	delete(r.s.works, id)
	delete(r.s.mappings, id)
	return nil
}

func (r *memWorkRepo) Count(ctx context.Context, d domain.Domain) (int64, error) {
	defer r.base().lock()()
	var n int64
	for _, w := range r.s.works {
		if w.Domain == d {
			n++
		}
	}
	return n, nil
}

func (r *memWorkRepo) orphans(d domain.Domain) []int64 {
	var out []int64
	for _, id := range r.sortedIDs() {
		w := r.s.works[id]
		if w.Domain != d {
			continue
		}
		if m, ok := r.s.mappings[id]; ok && m.Count() > 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (r *memWorkRepo) CountOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	defer r.base().lock()()
	return int64(len(r.orphans(d))), nil
}

func (r *memWorkRepo) DeleteOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	defer r.base().lock()()
	ids := r.orphans(d)
	for _, id := range ids {
		delete(r.s.works, id)
		delete(r.s.mappings, id)
	}
	return int64(len(ids)), nil
}

func (r *memWorkRepo) LockKey(ctx context.Context, key string) error {
	r.s.lockedKeys = append(r.s.lockedKeys, key)
	return nil
}

func (r *memWorkRepo) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.s.works))
	for id := range r.s.works {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type memMappingRepo memRepo

func (r *memMappingRepo) base() *memRepo { return (*memRepo)(r) }

func (r *memMappingRepo) Get(ctx context.Context, workID int64, d domain.Domain) (*domain.PlatformMapping, error) {
	defer r.base().lock()()
	if m, ok := r.s.mappings[workID]; ok {
		return m.Clone(), nil
	}
	return domain.NewPlatformMapping(workID, d), nil
}

func (r *memMappingRepo) Save(ctx context.Context, m *domain.PlatformMapping) error {
	defer r.base().lock()()
	if r.s.mappingConflicts > 0 {
		r.s.mappingConflicts--
		return domain.ConcurrencyConflict{Key: "injected"}
	}
	for workID, other := range r.s.mappings {
		if workID == m.WorkID || other.Domain != m.Domain {
			continue
		}
		for slot, id := range m.IDs {
			if otherID, ok := other.Get(slot); ok && otherID == id {
				return domain.ConcurrencyConflict{Key: string(slot)}
			}
		}
	}
	r.s.mappings[m.WorkID] = m.Clone()
	return nil
}

func (r *memMappingRepo) FindByPlatformID(ctx context.Context, d domain.Domain, slot domain.Slot, id int64) (*domain.PlatformMapping, error) {
	defer r.base().lock()()
	for _, m := range r.s.mappings {
		if got, ok := m.Get(slot); ok && m.Domain == d && got == id {
			return m.Clone(), nil
		}
	}
	return nil, domain.NotFoundError{Resource: "mapping"}
}

func (r *memMappingRepo) filter(d domain.Domain, keep func(m *domain.PlatformMapping) bool) []*domain.PlatformMapping {
	var out []*domain.PlatformMapping
	for _, m := range r.s.mappings {
		if m.Domain == d && keep(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkID < out[j].WorkID })
	return out
}

func (r *memMappingRepo) FindAvailableOn(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error) {
	defer r.base().lock()()
	return r.filter(d, func(m *domain.PlatformMapping) bool { return m.Has(slot) }), nil
}

func (r *memMappingRepo) FindExclusiveTo(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error) {
	defer r.base().lock()()
	return r.filter(d, func(m *domain.PlatformMapping) bool { return m.IsExclusiveTo(slot) }), nil
}

func (r *memMappingRepo) FindMultiPlatform(ctx context.Context, d domain.Domain) ([]*domain.PlatformMapping, error) {
	defer r.base().lock()()
	return r.filter(d, func(m *domain.PlatformMapping) bool { return m.IsMultiPlatform() }), nil
}

func (r *memMappingRepo) CountBySlot(ctx context.Context, d domain.Domain) (map[domain.Slot]int64, error) {
	defer r.base().lock()()
	out := map[domain.Slot]int64{}
	for _, m := range r.s.mappings {
		if m.Domain != d {
			continue
		}
		for _, slot := range m.Slots() {
			out[slot]++
		}
	}
	return out, nil
}

func (r *memMappingRepo) CountMapped(ctx context.Context, d domain.Domain) (int64, error) {
	defer r.base().lock()()
	var n int64
	for _, m := range r.s.mappings {
		if m.Domain == d && m.Count() > 0 {
			n++
		}
	}
	return n, nil
}

type memSourceRepo memRepo

func (r *memSourceRepo) base() *memRepo { return (*memRepo)(r) }

func (r *memSourceRepo) FindByIDs(ctx context.Context, ids []int64) ([]domain.SourceRecord, error) {
	defer r.base().lock()()
	var out []domain.SourceRecord
	for _, id := range ids {
		if rec, ok := r.s.sources[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memSourceRepo) Save(ctx context.Context, rec *domain.SourceRecord) error {
	defer r.base().lock()()
	for id, existing := range r.s.sources {
		if existing.Record.Domain == rec.Record.Domain && existing.Platform == rec.Platform && existing.SourceID == rec.SourceID {
			rec.ID = id
		}
	}
	if rec.ID == 0 {
		rec.ID = int64(len(r.s.sources) + 1)
	}
	r.s.sources[rec.ID] = *rec
	return nil
}

// keyLocker is a keyed mutex recording the keys it was asked for.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	keys  []string
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: map[string]*sync.Mutex{}}
}

func (l *keyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.WorkEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.WorkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return strings.Join(out, ",")
}

type memConfigRepo struct {
	configs map[int64]domain.IntegrationConfig
	nextID  int64
}

func newMemConfigRepo(cfgs ...domain.IntegrationConfig) *memConfigRepo {
	r := &memConfigRepo{configs: map[int64]domain.IntegrationConfig{}}
	for _, c := range cfgs {
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
		r.configs[c.ID] = c
	}
	return r
}

func (r *memConfigRepo) Get(ctx context.Context, id int64) (*domain.IntegrationConfig, error) {
	c, ok := r.configs[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "integration config"}
	}
	return &c, nil
}

func (r *memConfigRepo) ListActive(ctx context.Context, d domain.Domain) ([]domain.IntegrationConfig, error) {
	var out []domain.IntegrationConfig
	for _, c := range r.configs {
		if c.Domain == d && c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memConfigRepo) Create(ctx context.Context, c *domain.IntegrationConfig) error {
	r.nextID++
	c.ID = r.nextID
	r.configs[c.ID] = *c
	return nil
}

func (r *memConfigRepo) Update(ctx context.Context, c *domain.IntegrationConfig) error {
	if _, ok := r.configs[c.ID]; !ok {
		return domain.NotFoundError{Resource: "integration config"}
	}
	r.configs[c.ID] = *c
	return nil
}

func (r *memConfigRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.configs[id]; !ok {
		return domain.NotFoundError{Resource: "integration config"}
	}
	delete(r.configs, id)
	return nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func int64Ptr(n int64) *int64 { return &n }
