package store

import (
	"context"
	"errors"
	"time"

	"vwv/backend/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up document does not exist (or
	// a guarded write matched nothing).
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSaleID is returned when a sale insert collides with the
	// unique saleId index; the caller regenerates the id and retries.
	ErrDuplicateSaleID = errors.New("duplicate sale id")
)

// SaleTx is the transactional view the sale engine works against. Every call
// observes, and is observed by, the same atomic scope: either all writes made
// through a SaleTx commit together or none apply.
type SaleTx interface {
	// ProductByID re-reads the authoritative product inside the transaction.
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	// DecrementStock subtracts qty from the product's stock. The write is
	// guarded by stock >= qty; ErrNotFound is returned when no document
	// matched (vanished product or concurrent oversell).
	DecrementStock(ctx context.Context, id string, qty int, actorID string) error
	// InsertSale persists the immutable sale record.
	InsertSale(ctx context.Context, sale *models.Sale) error
}

// SaleFilter selects sales for the reporting layer. Zero values mean
// "no constraint"; dates are inclusive.
type SaleFilter struct {
	Branch       string
	StartDate    *time.Time
	EndDate      *time.Time
	PaymentType  string
	Status       string
	Cashier      string
	CustomerName string
	SaleID       string
	Search       string
	Phone        string
	Page         int64
	Limit        int64
}

// Store is the storage contract consumed by the sale engine and the query
// layer. InTransaction runs fn inside one atomic scope; if fn returns an
// error the whole scope rolls back and that error is returned verbatim.
type Store interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx SaleTx) error) error
	QuerySales(ctx context.Context, filter SaleFilter) ([]models.Sale, int64, error)
	SaleBySaleID(ctx context.Context, saleID string) (*models.Sale, error)
	UpdateSaleStatus(ctx context.Context, saleID, status, actorID string) error
	DeleteSale(ctx context.Context, saleID string) error
}
