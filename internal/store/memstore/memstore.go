// Package memstore is an in-memory store.Store used by tests and local
// development. Transactions are serialized by a single mutex; writes are
// staged and applied only when the transaction function returns nil, which
// gives the same all-or-nothing semantics the Mongo store provides.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vwv/backend/internal/models"
	"vwv/backend/internal/store"
)

type Store struct {
	mu       sync.Mutex
	products map[string]*models.Product
	sales    []models.Sale
	bySaleID map[string]int
}

func New() *Store {
	return &Store{
		products: make(map[string]*models.Product),
		bySaleID: make(map[string]int),
	}
}

// AddProduct seeds a product, assigning an id when missing, and returns it.
func (s *Store) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	clone := p
	s.products[p.ID.Hex()] = &clone
	return p
}

// ProductStock reports the current stock for a product id, -1 when missing.
func (s *Store) ProductStock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return -1
	}
	return p.Stock
}

// RemoveProduct deletes a product outright (simulates an admin hard delete).
func (s *Store) RemoveProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// SaleCount reports how many sales have been committed.
func (s *Store) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.SaleTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &saleTx{store: s, pendingDec: make(map[string]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type saleTx struct {
	store      *Store
	pendingDec map[string]int
	pendingSal []models.Sale
}

func (t *saleTx) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := t.store.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	view := *p
	view.Stock -= t.pendingDec[id]
	return &view, nil
}

func (t *saleTx) DecrementStock(ctx context.Context, id string, qty int, actorID string) error {
	p, ok := t.store.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Stock-t.pendingDec[id] < qty {
		return store.ErrNotFound
	}
	t.pendingDec[id] += qty
	return nil
}

func (t *saleTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	if _, exists := t.store.bySaleID[sale.SaleID]; exists {
		return store.ErrDuplicateSaleID
	}
	for _, pending := range t.pendingSal {
		if pending.SaleID == sale.SaleID {
			return store.ErrDuplicateSaleID
		}
	}
	if sale.ID.IsZero() {
		sale.ID = primitive.NewObjectID()
	}
	t.pendingSal = append(t.pendingSal, *sale)
	return nil
}

// commit applies staged writes; caller holds the store mutex.
func (t *saleTx) commit() {
	now := time.Now()
	for id, qty := range t.pendingDec {
		p := t.store.products[id]
		p.Stock -= qty
		p.UpdatedAt = now
	}
	for _, sale := range t.pendingSal {
		t.store.bySaleID[sale.SaleID] = len(t.store.sales)
		t.store.sales = append(t.store.sales, sale)
	}
}

func (s *Store) QuerySales(ctx context.Context, filter store.SaleFilter) ([]models.Sale, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Sale, 0)
	for _, sale := range s.sales {
		if saleMatches(sale, filter) {
			matched = append(matched, sale)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []models.Sale{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func saleMatches(sale models.Sale, filter store.SaleFilter) bool {
	if filter.Branch != "" && sale.Branch != filter.Branch {
		return false
	}
	if filter.StartDate != nil && sale.CreatedAt.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && sale.CreatedAt.After(*filter.EndDate) {
		return false
	}
	if filter.PaymentType != "" && sale.PaymentType != filter.PaymentType {
		return false
	}
	if filter.Status != "" && sale.Status != filter.Status {
		return false
	}
	if filter.Cashier != "" && !containsFold(sale.Cashier, filter.Cashier) {
		return false
	}
	if filter.CustomerName != "" && !containsFold(sale.Customer.Name, filter.CustomerName) {
		return false
	}
	if filter.SaleID != "" && !containsFold(sale.SaleID, filter.SaleID) {
		return false
	}
	if filter.Phone != "" && !containsFold(sale.Customer.Phone, filter.Phone) {
		return false
	}
	if filter.Search != "" {
		hit := containsFold(sale.SaleID, filter.Search) ||
			containsFold(sale.Customer.Name, filter.Search) ||
			containsFold(sale.Customer.Phone, filter.Search) ||
			containsFold(sale.Cashier, filter.Search)
		for _, item := range sale.Items {
			if hit {
				break
			}
			hit = containsFold(item.ProductName, filter.Search)
		}
		if !hit {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *Store) SaleBySaleID(ctx context.Context, saleID string) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.bySaleID[saleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	sale := s.sales[idx]
	return &sale, nil
}

func (s *Store) UpdateSaleStatus(ctx context.Context, saleID, status, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.bySaleID[saleID]
	if !ok {
		return store.ErrNotFound
	}
	s.sales[idx].Status = status
	s.sales[idx].UpdatedAt = time.Now()
	s.sales[idx].UpdatedBy = actorID
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.bySaleID[saleID]
	if !ok {
		return store.ErrNotFound
	}
	s.sales = append(s.sales[:idx], s.sales[idx+1:]...)
	delete(s.bySaleID, saleID)
	for id, i := range s.bySaleID {
		if i > idx {
			s.bySaleID[id] = i - 1
		}
	}
	return nil
}
