package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// The fakes in this file are stateful in-memory implementations rather
// than call-recording mocks: the orchestrator exercises them from several
// workers at once, so they guard their state with mutexes and let the
// tests assert on the resulting state.

// ---------------------------------------------------------------------------
// In-memory mapping repository
// ---------------------------------------------------------------------------

type memMappingRepo struct {
	mu       stdsync.Mutex
	mappings []*sync.EntityMapping
}

func newMemMappingRepo() *memMappingRepo {
	return &memMappingRepo{}
}

func (r *memMappingRepo) Find(ctx context.Context, entityType sync.EntityType, system sync.PlatformCode, id string) (*sync.EntityMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.EntityType != entityType {
			continue
		}
		if (m.SourceSystem == system && m.SourceID == id) ||
			(m.TargetSystem == system && m.TargetID == id) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, sync.ErrMappingNotFound
}

func (r *memMappingRepo) Upsert(ctx context.Context, mapping *sync.EntityMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mappings {
		if m.EntityType == mapping.EntityType &&
			m.TargetSystem == mapping.TargetSystem && m.TargetID == mapping.TargetID {
			if m.SourceID != mapping.SourceID {
				return sync.ErrMappingTargetConflict
			}
			copied := *mapping
			r.mappings[i] = &copied
			return nil
		}
		if m.ID == mapping.ID ||
			(m.EntityType == mapping.EntityType &&
				m.SourceSystem == mapping.SourceSystem && m.SourceID == mapping.SourceID) {
			copied := *mapping
			r.mappings[i] = &copied
			return nil
		}
	}
	copied := *mapping
	r.mappings = append(r.mappings, &copied)
	return nil
}

func (r *memMappingRepo) CountByType(ctx context.Context, entityType sync.EntityType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.mappings {
		if m.EntityType == entityType {
			n++
		}
	}
	return n, nil
}

var _ sync.MappingRepository = (*memMappingRepo)(nil)

// ---------------------------------------------------------------------------
// In-memory task repository
// ---------------------------------------------------------------------------

type memTaskRepo struct {
	mu    stdsync.Mutex
	tasks map[uuid.UUID]*sync.SyncTask
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[uuid.UUID]*sync.SyncTask)}
}

func (r *memTaskRepo) ClaimRunning(ctx context.Context, task *sync.SyncTask, totalEntities int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tasks {
		if id == task.ID {
			continue
		}
		if t.Status == sync.TaskStatusRunning &&
			t.EntityType == task.EntityType && t.Direction == task.Direction {
			return sync.ErrTaskAlreadyRunning
		}
	}
	if task.Status == sync.TaskStatusPending {
		if err := task.Start(totalEntities); err != nil {
			return err
		}
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *memTaskRepo) Save(ctx context.Context, task *sync.SyncTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

func (r *memTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*sync.SyncTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, sync.ErrTaskNotFound
	}
	return task, nil
}

func (r *memTaskRepo) List(ctx context.Context, filter sync.TaskFilter) ([]sync.SyncTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sync.SyncTask
	for _, t := range r.tasks {
		if filter.EntityType != nil && t.EntityType != *filter.EntityType {
			continue
		}
		if filter.Direction != nil && t.Direction != *filter.Direction {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memTaskRepo) FindRecoverable(ctx context.Context) ([]sync.SyncTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sync.SyncTask
	for _, t := range r.tasks {
		if !t.Status.IsTerminal() || t.Status == sync.TaskStatusInterrupted {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ sync.TaskRepository = (*memTaskRepo)(nil)

// ---------------------------------------------------------------------------
// Fake platform adapter
// ---------------------------------------------------------------------------

type fakeAdapter struct {
	mu   stdsync.Mutex
	code sync.PlatformCode

	orders    map[string]*sync.Order
	inventory []sync.InventoryLevel

	fetchErrs       map[string]error
	fulfillmentErrs map[string][]error
	listErr         error

	createdIDs       []string
	fulfillmentCalls map[string][]sync.FulfillmentUpdate
	paymentCalls     map[string][]sync.PaymentUpdate
	adjustmentKeys   []string
	adjustments      [][]sync.InventoryAdjustment
	nextID           int
}

func newFakeAdapter(code sync.PlatformCode) *fakeAdapter {
	return &fakeAdapter{
		code:             code,
		orders:           make(map[string]*sync.Order),
		fetchErrs:        make(map[string]error),
		fulfillmentErrs:  make(map[string][]error),
		fulfillmentCalls: make(map[string][]sync.FulfillmentUpdate),
		paymentCalls:     make(map[string][]sync.PaymentUpdate),
	}
}

func (a *fakeAdapter) addOrder(order sync.Order) {
	a.mu.Lock()
	defer a.mu.Unlock()
	order.Platform = a.code
	a.orders[order.PlatformOrderID] = &order
}

func (a *fakeAdapter) PlatformCode() sync.PlatformCode { return a.code }

func (a *fakeAdapter) FetchOrder(ctx context.Context, platformOrderID string) (*sync.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.fetchErrs[platformOrderID]; ok {
		return nil, err
	}
	order, ok := a.orders[platformOrderID]
	if !ok {
		return nil, sync.NewPlatformError(sync.ClassNotFound, a.code, sync.ErrEntityNotFound)
	}
	copied := *order
	return &copied, nil
}

func (a *fakeAdapter) ListOrders(ctx context.Context, req *sync.OrderListRequest) (*sync.OrderListResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listErr != nil {
		return nil, a.listErr
	}
	var ids []string
	for id := range a.orders {
		if id > req.AfterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	resp := &sync.OrderListResponse{}
	for _, id := range ids {
		if len(resp.Orders) == req.PageSize {
			resp.HasMore = true
			break
		}
		resp.Orders = append(resp.Orders, *a.orders[id])
	}
	return resp, nil
}

func (a *fakeAdapter) CreateOrder(ctx context.Context, order *sync.Order) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := fmt.Sprintf("%s-%03d", a.code, a.nextID)
	copied := *order
	copied.PlatformOrderID = id
	copied.Platform = a.code
	a.orders[id] = &copied
	a.createdIDs = append(a.createdIDs, id)
	return id, nil
}

func (a *fakeAdapter) UpdateFulfillment(ctx context.Context, platformOrderID string, update sync.FulfillmentUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if errs := a.fulfillmentErrs[platformOrderID]; len(errs) > 0 {
		err := errs[0]
		a.fulfillmentErrs[platformOrderID] = errs[1:]
		return err
	}
	a.fulfillmentCalls[platformOrderID] = append(a.fulfillmentCalls[platformOrderID], update)
	if order, ok := a.orders[platformOrderID]; ok {
		order.FulfillmentStatus = update.Status
	}
	return nil
}

func (a *fakeAdapter) UpdatePayment(ctx context.Context, platformOrderID string, update sync.PaymentUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paymentCalls[platformOrderID] = append(a.paymentCalls[platformOrderID], update)
	if order, ok := a.orders[platformOrderID]; ok {
		order.PaymentStatus = update.Status
	}
	return nil
}

func (a *fakeAdapter) FetchInventory(ctx context.Context, locationID string) ([]sync.InventoryLevel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]sync.InventoryLevel, len(a.inventory))
	copy(out, a.inventory)
	return out, nil
}

func (a *fakeAdapter) AdjustInventory(ctx context.Context, adjustments []sync.InventoryAdjustment, idempotencyKey string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adjustmentKeys = append(a.adjustmentKeys, idempotencyKey)
	a.adjustments = append(a.adjustments, adjustments)
	return nil
}

func (a *fakeAdapter) VerifyWebhookSignature(signature string, body []byte) bool {
	return signature == "valid"
}

func (a *fakeAdapter) ParseWebhook(body []byte) (*sync.WebhookEvent, error) {
	var payload struct {
		WebhookID string `json:"webhook_id"`
		Kind      string `json:"kind"`
		EntityID  string `json:"entity_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, sync.ErrWebhookMalformed
	}
	kind := sync.EventKind(payload.Kind)
	if !kind.IsValid() {
		kind = sync.EventKindUnknown
	}
	return &sync.WebhookEvent{
		WebhookID:  payload.WebhookID,
		Platform:   a.code,
		Kind:       kind,
		EntityID:   payload.EntityID,
		ReceivedAt: time.Now(),
	}, nil
}

var _ sync.PlatformAdapter = (*fakeAdapter)(nil)

type fakeRegistry struct {
	adapters map[sync.PlatformCode]sync.PlatformAdapter
}

func newFakeRegistry(adapters ...sync.PlatformAdapter) *fakeRegistry {
	r := &fakeRegistry{adapters: make(map[sync.PlatformCode]sync.PlatformAdapter)}
	for _, a := range adapters {
		r.adapters[a.PlatformCode()] = a
	}
	return r
}

func (r *fakeRegistry) Adapter(code sync.PlatformCode) (sync.PlatformAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, sync.ErrPlatformNotConfigured
	}
	return adapter, nil
}

var _ sync.AdapterRegistry = (*fakeRegistry)(nil)

// ---------------------------------------------------------------------------
// In-memory idempotency store
// ---------------------------------------------------------------------------

type memIdempotencyStore struct {
	mu   stdsync.Mutex
	seen map[string]bool
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *memIdempotencyStore) Forget(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, eventID)
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }
