package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/catalog"
	"github.com/Skotchmaster/shopcart/internal/db"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

type itemKey struct {
	t  models.ItemType
	id string
}

type fakeCatalog struct {
	mu         sync.Mutex
	items      map[itemKey]models.CatalogItem
	errs       map[itemKey]error
	delay      time.Duration
	lookups    int
	decrements map[itemKey]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		items:      map[itemKey]models.CatalogItem{},
		errs:       map[itemKey]error{},
		decrements: map[itemKey]int{},
	}
}

func (f *fakeCatalog) put(t models.ItemType, id, name string, price float64, inStock bool, available *int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemKey{t, id}] = models.CatalogItem{ID: id, Type: t, Name: name, Price: price, ImageURL: id + ".png", InStock: inStock, AvailableQuantity: available}
	delete(f.errs, itemKey{t, id})
}

func (f *fakeCatalog) remove(t models.ItemType, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemKey{t, id})
}

func (f *fakeCatalog) fail(t models.ItemType, id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[itemKey{t, id}] = err
}

func (f *fakeCatalog) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func (f *fakeCatalog) Lookup(ctx context.Context, t models.ItemType, id string) (*models.CatalogItem, error) {
	f.mu.Lock()
	f.lookups++
	delay := f.delay
	err := f.errs[itemKey{t, id}]
	item, ok := f.items[itemKey{t, id}]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &item, nil
}

func (f *fakeCatalog) DecrementStock(_ context.Context, t models.ItemType, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrements[itemKey{t, id}] += qty
	return nil
}

type published struct {
	topic, key string
	event      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, ev any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic, key, ev})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		switch ev := e.event.(type) {
		case CartEvent:
			out = append(out, ev.Type)
		case OrderEvent:
			out = append(out, ev.Type)
		}
	}
	return out
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate())
	return r
}

type harness struct {
	svc   *CartService
	cat   *fakeCatalog
	store *repo.GormRepo
	pub   *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cat:   newFakeCatalog(),
		store: newStore(t),
		pub:   &recordingPublisher{},
	}
	clock := &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	h.svc = &CartService{
		Repo:          h.store,
		Catalog:       h.cat,
		Events:        h.pub,
		LookupTimeout: 200 * time.Millisecond,
		Now:           clock.Now,
	}
	return h
}

func (h *harness) stored(t *testing.T, userID string) *models.Cart {
	t.Helper()
	c, err := h.store.GetByUser(context.Background(), userID)
	require.NoError(t, err)
	return c
}

// failingCartStore fails writes on demand.
type failingCartStore struct {
	CartStore
	saveErr error
}

func (f *failingCartStore) Save(ctx context.Context, c *models.Cart) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.CartStore.Save(ctx, c)
}

type failingOrderStore struct {
	OrderStore
	createErr error
}

func (f *failingOrderStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.OrderStore.CreateOrder(ctx, o)
}

var errBoom = errors.New("boom")

func intp(v int) *int { return &v }
