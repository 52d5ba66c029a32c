package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/repository"
)

// passthroughTx runs fn directly. The mocks below copy on every read and
// write, so a failed operation only leaves behind what it explicitly saved.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- users ---

type mockUserRepo struct {
	users map[string]*model.User
	byID  map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), byID: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) UpdateAddress(_ context.Context, id uuid.UUID, address string) error {
	user, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Address = address
	return nil
}

// --- menu items ---

type mockMenuItemRepo struct {
	items        map[uuid.UUID]model.MenuItem
	getManyCalls int
}

func newMockMenuItemRepo() *mockMenuItemRepo {
	return &mockMenuItemRepo{items: make(map[uuid.UUID]model.MenuItem)}
}

func (m *mockMenuItemRepo) Create(_ context.Context, item *model.MenuItem) error {
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	m.items[item.ID] = *item
	return nil
}

func (m *mockMenuItemRepo) GetByID(_ context.Context, id uuid.UUID) (*model.MenuItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *mockMenuItemRepo) GetMany(_ context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	m.getManyCalls++
	var out []model.MenuItem
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockMenuItemRepo) List(_ context.Context, restaurantID *uuid.UUID, limit, offset int, search string) ([]model.MenuItem, int, error) {
	var all []model.MenuItem
	for _, item := range m.items {
		if restaurantID != nil && item.RestaurantID != *restaurantID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(search)) {
			continue
		}
		all = append(all, item)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (m *mockMenuItemRepo) Update(_ context.Context, item *model.MenuItem) error {
	item.UpdatedAt = time.Now()
	m.items[item.ID] = *item
	return nil
}

func (m *mockMenuItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

// --- carts ---

type mockCartRepo struct {
	carts map[uuid.UUID]*model.Cart
	// staleSaves makes the next n Save calls fail as if another writer won.
	staleSaves int
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*model.Cart)}
}

func cloneCart(c *model.Cart) *model.Cart {
	cp := *c
	cp.Items = append([]model.CartItem(nil), c.Items...)
	return &cp
}

func (m *mockCartRepo) GetOrCreateCart(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, ok := m.carts[userID]
	if !ok {
		cart = &model.Cart{ID: uuid.New(), UserID: userID, TotalPrice: decimal.Zero, Version: 1}
		m.carts[userID] = cart
	}
	return cloneCart(cart), nil
}

func (m *mockCartRepo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return m.GetOrCreateCart(ctx, userID)
}

func (m *mockCartRepo) Save(_ context.Context, cart *model.Cart) error {
	stored, ok := m.carts[cart.UserID]
	if m.staleSaves > 0 {
		m.staleSaves--
		return repository.ErrStaleVersion
	}
	if !ok || stored.Version != cart.Version {
		return repository.ErrStaleVersion
	}
	cart.Version++
	m.carts[cart.UserID] = cloneCart(cart)
	return nil
}

// --- orders ---

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	seq    []uuid.UUID
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = cloneOrder(order)
	m.seq = append(m.seq, order.ID)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (m *mockOrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *mockOrderRepo) newestFirst(keep func(*model.Order) bool) []model.Order {
	var out []model.Order
	for i := len(m.seq) - 1; i >= 0; i-- {
		if order := m.orders[m.seq[i]]; keep(order) {
			out = append(out, *cloneOrder(order))
		}
	}
	return out
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	return m.newestFirst(func(o *model.Order) bool { return o.UserID == userID }), nil
}

func (m *mockOrderRepo) List(_ context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	all := m.newestFirst(func(o *model.Order) bool {
		if filter.Status != nil && o.Status != *filter.Status {
			return false
		}
		return filter.UserID == nil || o.UserID == *filter.UserID
	})
	total := len(all)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := total
	if filter.Limit > 0 {
		end = min(filter.Offset+filter.Limit, total)
	}
	return all[filter.Offset:end], total, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	order, ok := m.orders[id]
	if !ok || order.Status != from {
		return repository.ErrStaleVersion
	}
	order.Status = to
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, from, to model.OrderPaymentStatus) error {
	order, ok := m.orders[id]
	if !ok || order.PaymentStatus != from {
		return repository.ErrStaleVersion
	}
	order.PaymentStatus = to
	return nil
}

// --- payments ---

type mockPaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
	seq      []uuid.UUID
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	cp := *payment
	m.payments[payment.ID] = &cp
	m.seq = append(m.seq, payment.ID)
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *payment
	return &cp, nil
}

func (m *mockPaymentRepo) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for i := len(m.seq) - 1; i >= 0; i-- {
		if p := m.payments[m.seq[i]]; p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) Settle(_ context.Context, payment *model.Payment, from model.PaymentStatus) error {
	stored, ok := m.payments[payment.ID]
	if !ok || stored.Status != from {
		return repository.ErrStaleVersion
	}
	cp := *payment
	cp.UpdatedAt = time.Now()
	m.payments[payment.ID] = &cp
	return nil
}

// --- events ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBrokerDown = errors.New("broker down")

// --- fixture ---

type fixture struct {
	users    *mockUserRepo
	menu     *mockMenuItemRepo
	carts    *mockCartRepo
	orders   *mockOrderRepo
	payments *mockPaymentRepo
	events   *recordingPublisher

	menuSvc    *MenuService
	cartSvc    *CartService
	orderSvc   *OrderService
	paymentSvc *PaymentService
}

func newFixture() *fixture {
	f := &fixture{
		users:    newMockUserRepo(),
		menu:     newMockMenuItemRepo(),
		carts:    newMockCartRepo(),
		orders:   newMockOrderRepo(),
		payments: newMockPaymentRepo(),
		events:   &recordingPublisher{},
	}
	tx := passthroughTx{}
	f.menuSvc = NewMenuService(f.menu, nil, time.Minute)
	f.cartSvc = NewCartService(tx, f.carts, f.menuSvc)
	f.orderSvc = NewOrderService(tx, f.orders, f.carts, f.users, f.menuSvc, f.events, discardLogger)
	f.paymentSvc = NewPaymentService(tx, f.payments, f.orders, f.events, discardLogger)
	return f
}

func (f *fixture) addMenuItem(name, price string) model.MenuItem {
	item := &model.MenuItem{RestaurantID: uuid.New(), Name: name, Price: decimal.RequireFromString(price)}
	_ = f.menu.Create(context.Background(), item)
	return *item
}

func (f *fixture) setPrice(id uuid.UUID, price string) {
	item := f.menu.items[id]
	item.Price = decimal.RequireFromString(price)
	f.menu.items[id] = item
}

func (f *fixture) addUser(address string) uuid.UUID {
	user := &model.User{Name: "Asha", Email: uuid.NewString() + "@example.com", Address: address, Role: model.RoleUser}
	_ = f.users.Create(context.Background(), user)
	return user.ID
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
