package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oxygen78/BOT.github.io/internal/cache"
	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/repository"
)

// mockStore is an in-memory repository.Store mirroring the SQL semantics the
// services rely on: upsert-increment cart lines, conditional order
// transitions, snapshot-scoped deletes.
type mockStore struct {
	mu          sync.Mutex
	items       []*domain.Item
	lines       []domain.CartLine // insertion order
	orders      map[string]*domain.Order
	events      []*repository.OutboxEvent
	nextID      int64
	failErr     error // when set, every call fails with it
	finalizeErr error // one-shot: next FinalizeOrder fails without mutating
}

func newMockStore(items ...*domain.Item) *mockStore {
	return &mockStore{
		items:  items,
		orders: make(map[string]*domain.Order),
	}
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) RunMigrations(*repository.Credentials) error { return nil }

func (m *mockStore) ListItems(context.Context) ([]*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	return append([]*domain.Item(nil), m.items...), nil
}

func (m *mockStore) GetItemByName(_ context.Context, name string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	for _, item := range m.items {
		if item.Name == name {
			copied := *item
			return &copied, nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *mockStore) itemByID(id int64) *domain.Item {
	for _, item := range m.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (m *mockStore) AddCartLine(_ context.Context, userID, itemID int64) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, m.failErr
	}
	for i := range m.lines {
		if m.lines[i].UserID == userID && m.lines[i].ItemID == itemID {
			m.lines[i].Quantity++
			return m.lines[i].Quantity, nil
		}
	}
	item := m.itemByID(itemID)
	m.lines = append(m.lines, domain.CartLine{
		UserID:   userID,
		ItemID:   itemID,
		ItemName: item.Name,
		Quantity: 1,
	})
	return 1, nil
}

func (m *mockStore) GetCartLines(_ context.Context, userID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []domain.CartLine
	for _, line := range m.lines {
		if line.UserID == userID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (m *mockStore) ClearCart(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, m.failErr
	}
	var kept []domain.CartLine
	var removed int64
	for _, line := range m.lines {
		if line.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	m.lines = kept
	return removed, nil
}

func (m *mockStore) GetCartWithPrices(_ context.Context, userID int64) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []domain.OrderLine
	for _, line := range m.lines {
		if line.UserID != userID {
			continue
		}
		item := m.itemByID(line.ItemID)
		out = append(out, domain.OrderLine{
			ItemID:    line.ItemID,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
		})
	}
	return out, nil
}

func (m *mockStore) InsertOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	copied := *order
	copied.Lines = append([]domain.OrderLine(nil), order.Lines...)
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.orders[order.Payload] = &copied
	return nil
}

func (m *mockStore) GetOrderByPayload(_ context.Context, payload string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	order, ok := m.orders[payload]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	copied.Lines = append([]domain.OrderLine(nil), order.Lines...)
	return &copied, nil
}

func (m *mockStore) TransitionOrder(_ context.Context, payload string, from, to domain.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	order, ok := m.orders[payload]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockStore) SettleOrder(_ context.Context, payload string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	order, ok := m.orders[payload]
	if !ok || order.Status != domain.OrderStatusPaymentPending {
		return false, nil
	}
	order.Status = domain.OrderStatusSettled
	order.UpdatedAt = time.Now()

	event, _ := json.Marshal(map[string]any{
		"payload":     payload,
		"user_id":     order.UserID,
		"total_minor": order.TotalMinor,
	})
	m.nextID++
	m.events = append(m.events, &repository.OutboxEvent{
		ID:        m.nextID,
		Topic:     "order-settled",
		Key:       payload,
		Payload:   event,
		CreatedAt: time.Now(),
	})
	return true, nil
}

// FinalizeOrder mirrors the transactional SQL: the transition and the
// snapshot-line delete either both happen or neither does.
func (m *mockStore) FinalizeOrder(_ context.Context, payload string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, false, m.failErr
	}
	if m.finalizeErr != nil {
		err := m.finalizeErr
		m.finalizeErr = nil
		return 0, false, err
	}
	order, ok := m.orders[payload]
	if !ok || order.Status != domain.OrderStatusSettled {
		return 0, false, nil
	}
	order.Status = domain.OrderStatusFinalized
	order.UpdatedAt = time.Now()

	wanted := make(map[int64]bool, len(order.Lines))
	for _, line := range order.Lines {
		wanted[line.ItemID] = true
	}
	var kept []domain.CartLine
	var cleared int64
	for _, line := range m.lines {
		if line.UserID == order.UserID && wanted[line.ItemID] {
			cleared++
			continue
		}
		kept = append(kept, line)
	}
	m.lines = kept
	return cleared, true, nil
}

func (m *mockStore) ExpireStaleOrders(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, m.failErr
	}
	cutoff := time.Now().Add(-olderThan)
	var expired int64
	for _, order := range m.orders {
		if order.Status == domain.OrderStatusInvoiced && order.CreatedAt.Before(cutoff) {
			order.Status = domain.OrderStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (m *mockStore) GetUnsentEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []*repository.OutboxEvent
	for _, event := range m.events {
		if event.SentAt == nil {
			out = append(out, event)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) MarkEventSent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	now := time.Now()
	for _, event := range m.events {
		if event.ID == id {
			event.SentAt = &now
		}
	}
	return nil
}

// mockCache is a map-backed cache.CartCache recording invalidations.
type mockCache struct {
	mu      sync.Mutex
	views   map[int64][]domain.CartLine
	sets    int
	deletes int
	failErr error
}

func newMockCache() *mockCache {
	return &mockCache{views: make(map[int64][]domain.CartLine)}
}

func (c *mockCache) Get(_ context.Context, userID int64) ([]domain.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return nil, c.failErr
	}
	lines, ok := c.views[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return lines, nil
}

func (c *mockCache) Set(_ context.Context, userID int64, lines []domain.CartLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.views[userID] = lines
	c.sets++
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	delete(c.views, userID)
	c.deletes++
	return nil
}

func (c *mockCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *mockCache) deleteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deletes
}
