package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-service/models"
	"storefront-service/repository"
)

// --- Product repository ---

type fakeProducts struct {
	byID map[string]*models.Product
	err  error
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{byID: map[string]*models.Product{}}
	for _, p := range products {
		f.byID[p.ID.Hex()] = p
	}
	return f
}

func (f *fakeProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp, nil
}

func (f *fakeProducts) List(_ context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []models.Product
	for _, p := range f.byID {
		if p.IsActive && (filter.Category == "" || p.Category == filter.Category) {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

// --- Order repository ---

type fakeOrders struct {
	mu        sync.Mutex
	byID      map[string]*models.Order
	createErr error
	updateErr error
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{byID: map[string]*models.Order{}}
	for _, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		f.byID[o.ID.Hex()] = o
	}
	return f
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.UpdatedAt = time.Now().UTC()
	cp := *order
	f.byID[order.ID.Hex()] = &cp
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) FindByUserID(_ context.Context, userID string, _, _ int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) FindAll(_ context.Context, status models.OrderStatus, _, _ int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.byID {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) Update(_ context.Context, id primitive.ObjectID, upd repository.OrderUpdate, fromStatuses ...models.OrderStatus) (*models.Order, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id.Hex()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if len(fromStatuses) > 0 {
		allowed := false
		for _, s := range fromStatuses {
			if o.Status == s {
				allowed = true
			}
		}
		if !allowed {
			return nil, repository.ErrNotFound
		}
	}
	if upd.Status != "" {
		o.Status = upd.Status
	}
	if upd.PaymentStatus != "" {
		o.PaymentStatus = upd.PaymentStatus
	}
	if upd.PaymentMethod != "" {
		o.PaymentMethod = upd.PaymentMethod
	}
	if upd.TransactionID != "" {
		o.TransactionID = upd.TransactionID
	}
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeOrders) get(id primitive.ObjectID) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.byID[id.Hex()]
	return &cp
}

// --- Cart repository ---

type fakeCarts struct {
	byUser   map[string]*models.Cart
	cleared  []string
	saved    int
	clearErr error
}

func newFakeCarts(carts ...*models.Cart) *fakeCarts {
	f := &fakeCarts{byUser: map[string]*models.Cart{}}
	for _, c := range carts {
		f.byUser[c.UserID] = c
	}
	return f
}

func (f *fakeCarts) FindByUserID(_ context.Context, userID string) (*models.Cart, error) {
	c, ok := f.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp, nil
}

func (f *fakeCarts) Save(_ context.Context, cart *models.Cart) error {
	f.saved++
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	f.byUser[cart.UserID] = &cp
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, userID)
	if c, ok := f.byUser[userID]; ok {
		c.Items = []models.CartItem{}
	}
	return nil
}

// --- Payment repository ---

type fakePayments struct {
	mu        sync.Mutex
	records   []models.Payment
	createErr error
}

func (f *fakePayments) Create(_ context.Context, p *models.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	f.records = append(f.records, *p)
	return nil
}

func (f *fakePayments) FindLatestByOrderID(_ context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].OrderID == orderID {
			cp := f.records[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) all() []models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payment(nil), f.records...)
}

// --- SNS publisher ---

type publishedEvent struct {
	TopicArn  string
	EventType string
	Body      []byte
}

type fakeSNS struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, topicArn, eventType string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{TopicArn: topicArn, EventType: eventType, Body: message})
	return f.err
}

func (f *fakeSNS) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}

var errBoom = errors.New("connection reset")

// --- fixtures ---

func floatPtr(v float64) *float64 { return &v }

func noirTee() *models.Product {
	return &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Noir Tee",
		Code:     "NT-01",
		Category: "tops",
		Price:    3290,
		IsActive: true,
		Variants: []models.Variant{
			{ID: primitive.NewObjectID(), Color: "Black", Size: "M", Quantity: 5, SKU: "NT-BLK-M"},
			{ID: primitive.NewObjectID(), Color: "White", Size: "L", Quantity: 1, SKU: "NT-WHT-L"},
		},
	}
}

func pendingOrder(total float64) *models.Order {
	return &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          "user-1",
		Email:           "nimali@example.com",
		FirstName:       "Nimali",
		LastName:        "Perera",
		Phone:           "0771234567",
		ShippingAddress: models.ShippingAddress{AddressLine1: "12 Galle Rd", City: "Colombo", PostalCode: "00300", Country: "Sri Lanka"},
		Items:           []models.OrderItem{{ProductName: "Noir Tee", Quantity: 3, PriceAtPurchase: 3290}},
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentMethod:   models.PaymentMethodPayHere,
		PaymentStatus:   models.PaymentStatusPending,
	}
}
