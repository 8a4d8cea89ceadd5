package sales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"vwv/backend/internal/models"
	"vwv/backend/internal/store"
)

// maxSaleIDAttempts bounds the regenerate-and-retry loop when a generated
// sale id collides with the unique index.
const maxSaleIDAttempts = 3

// Query pagination bounds.
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 1000
)

// Engine runs the atomic sale commit protocol against a Store. One engine is
// shared by all request handlers; it keeps no per-sale state, so concurrent
// sales are safe and correctness is delegated to the store's transaction
// guarantees.
type Engine struct {
	store  store.Store
	branch string

	// Injection points for tests.
	now       func() time.Time
	newSaleID func() string
}

func NewEngine(st store.Store, branch string) *Engine {
	return &Engine{
		store:     st,
		branch:    branch,
		now:       time.Now,
		newSaleID: newSaleID,
	}
}

// SaleReceipt is the success result of RecordSale.
type SaleReceipt struct {
	SaleID      string  `json:"saleId"`
	TotalProfit float64 `json:"totalProfit"`
}

// RecordSale validates the request and commits the sale atomically: sale
// record insert plus every stock decrement succeed together or not at all.
// Failures are typed (AuthorizationError, ValidationError, NotFoundError,
// InsufficientStockError); anything else is a storage failure that left no
// partial state and is safe to resubmit.
func (e *Engine) RecordSale(ctx context.Context, req CreateSaleRequest, actor models.Actor) (*SaleReceipt, error) {
	if err := e.authorizeSale(actor); err != nil {
		return nil, err
	}
	if err := ValidateCreateSale(&req, e.branch); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxSaleIDAttempts; attempt++ {
		sale, err := e.commit(ctx, req, actor, e.newSaleID())
		if errors.Is(err, store.ErrDuplicateSaleID) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &SaleReceipt{SaleID: sale.SaleID, TotalProfit: sale.TotalProfit}, nil
	}
	return nil, fmt.Errorf("could not allocate a unique sale id after %d attempts", maxSaleIDAttempts)
}

func (e *Engine) authorizeSale(actor models.Actor) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleWholesalePOS {
		return &AuthorizationError{Message: "Only admins and wholesale POS users can create sales"}
	}
	if actor.Role == models.RoleWholesalePOS && actor.Branch != e.branch {
		return &AuthorizationError{Message: fmt.Sprintf("Access denied. This terminal serves the %s branch only", e.branch)}
	}
	return nil
}

// commit runs one attempt of the transaction protocol with a fixed sale id.
func (e *Engine) commit(ctx context.Context, req CreateSaleRequest, actor models.Actor, saleID string) (*models.Sale, error) {
	var sale *models.Sale

	err := e.store.InTransaction(ctx, func(txCtx context.Context, tx store.SaleTx) error {
		items := make([]models.SaleItem, 0, len(req.Items))
		available := make(map[string]int, len(req.Items))
		totalProfit := 0.0

		for _, item := range req.Items {
			// Authoritative re-read inside the transaction; client-supplied
			// stock or prices are never the basis of the commit decision.
			product, err := tx.ProductByID(txCtx, item.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return &NotFoundError{ProductID: item.ProductID, ProductName: item.ProductName}
			}
			if err != nil {
				return err
			}

			if product.Stock < item.Quantity {
				return &InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   item.Quantity,
				}
			}
			available[item.ProductID] = product.Stock

			costOfGoods := product.BuyingPrice * float64(item.Quantity)
			profit := item.TotalPrice - costOfGoods
			totalProfit += profit

			items = append(items, models.SaleItem{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Category:    product.Category,
				Subcategory: product.Subcategory,
				Branch:      e.branch,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				BuyingPrice: product.BuyingPrice,
				TotalPrice:  item.TotalPrice,
				CostOfGoods: costOfGoods,
				Profit:      profit,
			})
		}

		cashier := actor.Name
		if cashier == "" {
			cashier = req.Cashier
		}

		now := e.now()
		sale = &models.Sale{
			SaleID: saleID,
			Customer: models.SaleCustomer{
				Name:    req.Customer.Name,
				Phone:   req.Customer.Phone,
				Address: req.Customer.Address,
			},
			Items:          items,
			Payment:        buildPayment(req),
			TotalAmount:    req.TotalAmount,
			Discount:       req.Discount,
			AdjustedAmount: req.AdjustedAmount,
			TotalProfit:    totalProfit,
			PaymentType:    req.PaymentType,
			Status:         req.Status,
			Branch:         e.branch,
			Cashier:        cashier,
			CashierRole:    actor.Role,
			CreatedBy:      actor.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := tx.InsertSale(txCtx, sale); err != nil {
			return err
		}

		for _, item := range items {
			err := tx.DecrementStock(txCtx, item.ProductID, item.Quantity, actor.ID)
			if errors.Is(err, store.ErrNotFound) {
				// Guarded write matched nothing: the product vanished or a
				// concurrent sale consumed the stock first.
				return &InsufficientStockError{
					ProductName: item.ProductName,
					Available:   available[item.ProductID],
					Requested:   item.Quantity,
				}
			}
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func buildPayment(req CreateSaleRequest) models.SalePayment {
	methods := make([]models.PaymentMethod, 0, len(req.Payment.Methods))
	for _, m := range req.Payment.Methods {
		methods = append(methods, models.PaymentMethod{
			ID:     m.ID,
			Name:   m.Name,
			Type:   m.Type,
			Amount: m.Amount,
		})
	}
	return models.SalePayment{
		Methods:     methods,
		TotalAmount: req.TotalAmount,
		TotalPaid:   req.Payment.TotalPaid,
		Change:      req.Payment.TotalPaid - req.AdjustedAmount,
	}
}

// QuerySalesParams selects committed sales for reporting. Dates must already
// be parsed; ParseDateRange handles the day-boundary and open-end rules.
type QuerySalesParams struct {
	Page         int64
	Limit        int64
	StartDate    *time.Time
	EndDate      *time.Time
	PaymentType  string
	Status       string
	Cashier      string
	CustomerName string
	SaleID       string
	Search       string
	Phone        string
}

// Pagination describes the result window alongside a page of sales.
type Pagination struct {
	CurrentPage int64 `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int64 `json:"limit"`
}

// QuerySales is the read-only reporting entry point. Unknown enum filter
// values are dropped rather than failing the whole query; an inverted date
// range is a validation error, never silently swapped.
func (e *Engine) QuerySales(ctx context.Context, params QuerySalesParams) ([]models.Sale, Pagination, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = DefaultQueryLimit
	}
	if params.Limit > MaxQueryLimit {
		params.Limit = MaxQueryLimit
	}

	if params.StartDate != nil && params.EndDate != nil && params.StartDate.After(*params.EndDate) {
		return nil, Pagination{}, &ValidationError{Message: "Start date cannot be after end date"}
	}

	filter := store.SaleFilter{
		Branch:    e.branch,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if models.IsValidPaymentType(params.PaymentType) {
		filter.PaymentType = params.PaymentType
	}
	if models.IsValidSaleStatus(params.Status) {
		filter.Status = params.Status
	}
	filter.Cashier = params.Cashier
	filter.CustomerName = params.CustomerName
	filter.SaleID = params.SaleID
	filter.Search = params.Search
	filter.Phone = params.Phone

	salesPage, total, err := e.store.QuerySales(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int64(0)
	if total > 0 {
		totalPages = int64(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return salesPage, Pagination{
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNextPage: params.Page < totalPages,
		HasPrevPage: params.Page > 1,
		Limit:       params.Limit,
	}, nil
}

// UpdateStatus changes a committed sale's status. Admin only; status is the
// single mutable field, and stock is deliberately left untouched for
// cancellations and refunds.
func (e *Engine) UpdateStatus(ctx context.Context, saleID, status string, actor models.Actor) error {
	if actor.Role != models.RoleAdmin {
		return &AuthorizationError{Message: "Only admins can update sales"}
	}
	if !models.IsValidSaleStatus(status) {
		return &ValidationError{Message: "Invalid status value"}
	}
	return e.store.UpdateSaleStatus(ctx, saleID, status, actor.ID)
}

// DeleteSale removes a sale record outright. Admin only.
func (e *Engine) DeleteSale(ctx context.Context, saleID string, actor models.Actor) error {
	if actor.Role != models.RoleAdmin {
		return &AuthorizationError{Message: "Only admins can delete sales"}
	}
	return e.store.DeleteSale(ctx, saleID)
}

// ParseDateRange interprets reporting date bounds. Each side accepts
// YYYY-MM-DD or RFC3339; a missing side stays open-ended. Calendar-date
// bounds are widened to the day boundaries so a range covers whole days.
func ParseDateRange(startStr, endStr string) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if startStr != "" {
		t, dateOnly, err := parseQueryDate(startStr)
		if err != nil {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("Invalid start date: %s", startStr)}
		}
		if dateOnly {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
		start = &t
	}

	if endStr != "" {
		t, dateOnly, err := parseQueryDate(endStr)
		if err != nil {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("Invalid end date: %s", endStr)}
		}
		if dateOnly {
			t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
		}
		end = &t
	}

	if start != nil && end != nil && start.After(*end) {
		return nil, nil, &ValidationError{Message: "Start date cannot be after end date"}
	}

	return start, end, nil
}

func parseQueryDate(value string) (time.Time, bool, error) {
	t, dateOnly := time.Time{}, true
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		dateOnly = false
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, false, err
		}
	}
	if t.Year() < 1900 || t.Year() > 2100 {
		return time.Time{}, false, fmt.Errorf("year out of range: %d", t.Year())
	}
	return t, dateOnly, nil
}
