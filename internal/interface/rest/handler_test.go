package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/service"
	"github.com/alldopamine/catalog/internal/usecase"
)

// --- mocks ---

type mockStore struct {
	mu       sync.Mutex
	works    map[int64]*domain.Work
	mappings map[int64]*domain.PlatformMapping
	sources  map[int64]domain.SourceRecord
	nextID   int64
}

func newMockStore() *mockStore {
	return &mockStore{
		works:    map[int64]*domain.Work{},
		mappings: map[int64]*domain.PlatformMapping{},
		sources:  map[int64]domain.SourceRecord{},
	}
}

func (s *mockStore) InTx(ctx context.Context, fn func(ctx context.Context, repos usecase.Repositories) error) error {
	return fn(ctx, s.Repositories())
}

func (s *mockStore) Repositories() usecase.Repositories {
	return usecase.Repositories{
		Works:    (*mockWorkRepo)(s),
		Mappings: (*mockMappingRepo)(s),
		Sources:  (*mockSourceRepo)(s),
	}
}

type mockWorkRepo mockStore

func (r *mockWorkRepo) FindByID(ctx context.Context, id int64) (*domain.Work, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.works[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "work"}
	}
	return w, nil
}

func (r *mockWorkRepo) FindByDomainAndAuthorKey(ctx context.Context, d domain.Domain, key string) ([]*domain.Work, error) {
	all, _ := r.FindByDomain(ctx, d)
	var out []*domain.Work
	for _, w := range all {
		if w.AuthorKey() == key {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *mockWorkRepo) FindByDomain(ctx context.Context, d domain.Domain) ([]*domain.Work, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Work
	for _, w := range r.works {
		if w.Domain == d {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockWorkRepo) Save(ctx context.Context, w *domain.Work) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == 0 {
		r.nextID++
		w.ID = r.nextID
	}
	r.works[w.ID] = w
	return nil
}

func (r *mockWorkRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.works, id)
	return nil
}

func (r *mockWorkRepo) Count(ctx context.Context, d domain.Domain) (int64, error) {
	all, _ := r.FindByDomain(ctx, d)
	return int64(len(all)), nil
}

func (r *mockWorkRepo) orphans(d domain.Domain) []int64 {
	var ids []int64
	for id, w := range r.works {
		if m, ok := r.mappings[id]; w.Domain == d && (!ok || m.Count() == 0) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *mockWorkRepo) CountOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orphans(d))), nil
}

func (r *mockWorkRepo) DeleteOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.orphans(d)
	for _, id := range ids {
		delete(r.works, id)
	}
	return int64(len(ids)), nil
}

func (r *mockWorkRepo) LockKey(ctx context.Context, key string) error { return nil }

type mockMappingRepo mockStore

func (r *mockMappingRepo) Get(ctx context.Context, workID int64, d domain.Domain) (*domain.PlatformMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mappings[workID]; ok {
		return m.Clone(), nil
	}
	return domain.NewPlatformMapping(workID, d), nil
}

func (r *mockMappingRepo) Save(ctx context.Context, m *domain.PlatformMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[m.WorkID] = m.Clone()
	return nil
}

func (r *mockMappingRepo) FindByPlatformID(ctx context.Context, d domain.Domain, slot domain.Slot, id int64) (*domain.PlatformMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if got, ok := m.Get(slot); ok && m.Domain == d && got == id {
			return m.Clone(), nil
		}
	}
	return nil, domain.NotFoundError{Resource: "mapping"}
}

func (r *mockMappingRepo) filter(d domain.Domain, keep func(m *domain.PlatformMapping) bool) []*domain.PlatformMapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.PlatformMapping{}
	for _, m := range r.mappings {
		if m.Domain == d && keep(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkID < out[j].WorkID })
	return out
}

func (r *mockMappingRepo) FindAvailableOn(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error) {
	return r.filter(d, func(m *domain.PlatformMapping) bool { return m.Has(slot) }), nil
}

func (r *mockMappingRepo) FindExclusiveTo(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error) {
	return r.filter(d, func(m *domain.PlatformMapping) bool { return m.IsExclusiveTo(slot) }), nil
}

func (r *mockMappingRepo) FindMultiPlatform(ctx context.Context, d domain.Domain) ([]*domain.PlatformMapping, error) {
	return r.filter(d, func(m *domain.PlatformMapping) bool { return m.IsMultiPlatform() }), nil
}

func (r *mockMappingRepo) CountBySlot(ctx context.Context, d domain.Domain) (map[domain.Slot]int64, error) {
	counts := map[domain.Slot]int64{}
	for _, m := range r.filter(d, func(*domain.PlatformMapping) bool { return true }) {
		for _, slot := range m.Slots() {
			counts[slot]++
		}
	}
	return counts, nil
}

func (r *mockMappingRepo) CountMapped(ctx context.Context, d domain.Domain) (int64, error) {
	mapped := r.filter(d, func(m *domain.PlatformMapping) bool { return m.Count() > 0 })
	return int64(len(mapped)), nil
}

type mockSourceRepo mockStore

func (r *mockSourceRepo) FindByIDs(ctx context.Context, ids []int64) ([]domain.SourceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SourceRecord
	for _, id := range ids {
		if rec, ok := r.sources[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *mockSourceRepo) Save(ctx context.Context, rec *domain.SourceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == 0 {
		rec.ID = int64(len(r.sources) + 1)
	}
	r.sources[rec.ID] = *rec
	return nil
}

type mockConfigRepo struct {
	configs map[int64]domain.IntegrationConfig
}

func (m *mockConfigRepo) Get(ctx context.Context, id int64) (*domain.IntegrationConfig, error) {
	c, ok := m.configs[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "integration config"}
	}
	return &c, nil
}

func (m *mockConfigRepo) ListActive(ctx context.Context, d domain.Domain) ([]domain.IntegrationConfig, error) {
	var out []domain.IntegrationConfig
	for _, c := range m.configs {
		if c.Domain == d && c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConfigRepo) Create(ctx context.Context, c *domain.IntegrationConfig) error {
	c.ID = int64(len(m.configs) + 1)
	m.configs[c.ID] = *c
	return nil
}

func (m *mockConfigRepo) Update(ctx context.Context, c *domain.IntegrationConfig) error {
	m.configs[c.ID] = *c
	return nil
}

func (m *mockConfigRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.configs[id]; !ok {
		return domain.NotFoundError{Resource: "integration config"}
	}
	delete(m.configs, id)
	return nil
}

type mockLocker struct{}

func (mockLocker) Lock(ctx context.Context, key string) (func(), error) { return func() {}, nil }

// --- helpers ---

const adminToken = "test-token"

func newTestServer(store *mockStore) *echo.Echo {
	logger := logging.NewNop()
	configs := &mockConfigRepo{configs: map[int64]domain.IntegrationConfig{}}

	h := NewHandler(
		usecase.NewIngestUsecase(store, mockLocker{}, usecase.WithIngestLogger(logger)),
		usecase.NewSourceUsecase(store, logger),
		usecase.NewIntegrationUsecase(store, configs, usecase.WithIntegrationLogger(logger)),
		usecase.NewConfigUsecase(configs, nil, logger),
		usecase.NewMappingUsecase(store, nil, logger),
		usecase.NewMaintenanceUsecase(store, logger),
		service.NewAuthService(adminToken),
	)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	return res
}

func webtoonEnvelope(id int64, title string) map[string]any {
	return map[string]any{
		"domain":       "webtoon",
		"platformName": "naver",
		"platformId":   id,
		"title":        title,
		"author":       "SIU",
	}
}

// --- tests ---

func TestIngestRequiresToken(t *testing.T) {
	e := newTestServer(newMockStore())

	res := do(e, http.MethodPost, "/api/v1/ingest", webtoonEnvelope(1, "Tower of God"), "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
	res = do(e, http.MethodPost, "/api/v1/ingest", webtoonEnvelope(1, "Tower of God"), "wrong")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestIngestCreatesThenMerges(t *testing.T) {
	store := newMockStore()
	e := newTestServer(store)

	res := do(e, http.MethodPost, "/api/v1/ingest", webtoonEnvelope(1, "Tower of God"), adminToken)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}
	var first struct {
		Action string `json:"action"`
		Work   struct {
			ID int64 `json:"id"`
		} `json:"work"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Action != "created" {
		t.Fatalf("expected created, got %q", first.Action)
	}

	env := webtoonEnvelope(77, "Tower of God")
	env["platformName"] = "kakao"
	res = do(e, http.MethodPost, "/api/v1/ingest", env, adminToken)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}
	var second struct {
		Action string `json:"action"`
	}
	json.Unmarshal(res.Body.Bytes(), &second)
	if second.Action != "merged" {
		t.Fatalf("expected merged, got %q", second.Action)
	}

	res = do(e, http.MethodGet, "/api/v1/mappings/webtoon/multi", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var multi []domain.PlatformMapping
	json.Unmarshal(res.Body.Bytes(), &multi)
	if len(multi) != 1 || multi[0].WorkID != first.Work.ID {
		t.Fatalf("expected work %d on both platforms, got %+v", first.Work.ID, multi)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	e := newTestServer(newMockStore())

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown domain", http.MethodGet, "/api/v1/status/radio", nil, http.StatusBadRequest},
		{"missing work", http.MethodGet, "/api/v1/works/9/mapping", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/works/abc/mapping", nil, http.StatusBadRequest},
		{"missing config", http.MethodPost, "/api/v1/integrate", map[string]any{"configId": 5, "sourceIds": []int64{1}}, http.StatusNotFound},
		{"blank title", http.MethodPost, "/api/v1/ingest", webtoonEnvelope(1, "  "), http.StatusBadRequest},
		{"invalid config", http.MethodPost, "/api/v1/configs", map[string]any{
			"domain": "game",
			"name":   "broken",
			"fieldMappings": []map[string]any{
				{"targetField": "title", "sourcePlatform": "naver", "sourceField": "title", "priority": 1},
			},
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(e, tt.method, tt.path, tt.body, adminToken)
			if res.Code != tt.want {
				t.Fatalf("expected %d got %d: %s", tt.want, res.Code, res.Body.String())
			}
		})
	}
}

func TestConfigLifecycle(t *testing.T) {
	e := newTestServer(newMockStore())

	cfg := map[string]any{
		"domain": "game",
		"name":   "steam first",
		"active": true,
		"fieldMappings": []map[string]any{
			{"targetField": "title", "sourcePlatform": "Steam", "sourceField": "title", "priority": 1},
		},
		"calculations": []map[string]any{
			{"targetField": "rating", "type": "average", "expression": "rating"},
		},
	}
	res := do(e, http.MethodPost, "/api/v1/configs", cfg, adminToken)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}
	var created domain.IntegrationConfig
	json.Unmarshal(res.Body.Bytes(), &created)
	if created.FieldMappings[0].SourcePlatform != "steam" {
		t.Fatalf("platform not normalized: %q", created.FieldMappings[0].SourcePlatform)
	}
	if created.Calculations[0].Type != domain.CalculationAverage {
		t.Fatalf("calculation type not normalized: %q", created.Calculations[0].Type)
	}

	res = do(e, http.MethodGet, "/api/v1/configs?domain=GAME", nil, "")
	var listed []domain.IntegrationConfig
	json.Unmarshal(res.Body.Bytes(), &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one active config, got %d", len(listed))
	}

	res = do(e, http.MethodDelete, "/api/v1/configs/1", nil, adminToken)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", res.Code)
	}
	res = do(e, http.MethodGet, "/api/v1/configs/1", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestOrphanCleanup(t *testing.T) {
	store := newMockStore()
	e := newTestServer(store)

	orphan := domain.NewWork(domain.DomainGame)
	orphan.Title = "Forgotten"
	(*mockWorkRepo)(store).Save(context.Background(), orphan)

	res := do(e, http.MethodGet, "/api/v1/orphans/game", nil, "")
	if res.Code != http.StatusOK || !bytes.Contains(res.Body.Bytes(), []byte(`"orphans":1`)) {
		t.Fatalf("unexpected count response %d: %s", res.Code, res.Body.String())
	}

	res = do(e, http.MethodDelete, "/api/v1/orphans/game", nil, adminToken)
	if res.Code != http.StatusOK || !bytes.Contains(res.Body.Bytes(), []byte(`"deleted":1`)) {
		t.Fatalf("unexpected cleanup response %d: %s", res.Code, res.Body.String())
	}
	if len(store.works) != 0 {
		t.Fatalf("orphan not removed")
	}
}
