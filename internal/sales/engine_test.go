package sales

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"vwv/backend/internal/models"
	"vwv/backend/internal/store"
	"vwv/backend/internal/store/memstore"
)

const testBranch = "uttara_wholesale"

var testActor = models.Actor{
	ID:     "64b000000000000000000001",
	Name:   "Test Cashier",
	Role:   models.RoleWholesalePOS,
	Branch: testBranch,
}

func newTestEngine() (*Engine, *memstore.Store) {
	st := memstore.New()
	return NewEngine(st, testBranch), st
}

func seedProduct(st *memstore.Store, name string, buyingPrice, price float64, stock int) models.Product {
	return st.AddProduct(models.Product{
		Name:        name,
		Category:    "E-LIQUID",
		Subcategory: "Fruits",
		Price:       price,
		BuyingPrice: buyingPrice,
		Stock:       stock,
		Status:      models.ProductStatusActive,
		Branch:      testBranch,
	})
}

// saleRequestFor builds a fully consistent single-item cash sale.
func saleRequestFor(p models.Product, quantity int) CreateSaleRequest {
	total := p.Price * float64(quantity)
	return CreateSaleRequest{
		Items: []SaleItemRequest{{
			ProductID:   p.ID.Hex(),
			ProductName: p.Name,
			Branch:      testBranch,
			Quantity:    quantity,
			UnitPrice:   p.Price,
			TotalPrice:  total,
		}},
		Payment: PaymentRequest{
			Methods: []PaymentMethodRequest{
				{ID: "cash", Name: "Cash", Type: "cash", Amount: total},
			},
			TotalPaid: total,
		},
		TotalAmount: total,
	}
}

func TestRecordSaleComputesProfit(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Mango Nic Salt", 10, 15, 100)

	receipt, err := eng.RecordSale(context.Background(), saleRequestFor(product, 3), testActor)
	if err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}

	if receipt.TotalProfit != 15 {
		t.Fatalf("expected totalProfit=15, got %v", receipt.TotalProfit)
	}

	sale, err := st.SaleBySaleID(context.Background(), receipt.SaleID)
	if err != nil {
		t.Fatalf("committed sale not found: %v", err)
	}
	item := sale.Items[0]
	if item.CostOfGoods != 30 || item.Profit != 15 {
		t.Fatalf("expected costOfGoods=30 profit=15, got %v/%v", item.CostOfGoods, item.Profit)
	}
	if item.BuyingPrice != 10 {
		t.Fatalf("expected buying price snapshot 10, got %v", item.BuyingPrice)
	}
	if got := st.ProductStock(product.ID.Hex()); got != 97 {
		t.Fatalf("expected stock 97 after sale, got %d", got)
	}
}

func TestRecordSaleAtomicOnStockFailure(t *testing.T) {
	eng, st := newTestEngine()
	plenty := seedProduct(st, "Tobacco E-Liquid", 5, 8, 50)
	scarce := seedProduct(st, "Boro Bridge", 20, 30, 2)

	req := saleRequestFor(plenty, 10)
	req.Items = append(req.Items, SaleItemRequest{
		ProductID:   scarce.ID.Hex(),
		ProductName: scarce.Name,
		Branch:      testBranch,
		Quantity:    5,
		UnitPrice:   30,
		TotalPrice:  150,
	})
	req.TotalAmount = 80 + 150
	req.Payment.Methods[0].Amount = 230
	req.Payment.TotalPaid = 230

	_, err := eng.RecordSale(context.Background(), req, testActor)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 5 {
		t.Fatalf("unexpected shortfall detail: %+v", stockErr)
	}

	// Nothing may have been written: no sale record, no stock movement on
	// the item that individually passed its check.
	if st.SaleCount() != 0 {
		t.Fatalf("expected zero sales after aborted transaction, got %d", st.SaleCount())
	}
	if got := st.ProductStock(plenty.ID.Hex()); got != 50 {
		t.Fatalf("expected untouched stock 50, got %d", got)
	}
	if got := st.ProductStock(scarce.ID.Hex()); got != 2 {
		t.Fatalf("expected untouched stock 2, got %d", got)
	}
}

func TestRecordSaleConcurrentLastUnit(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Disposable Pod", 4, 6, 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = eng.RecordSale(context.Background(), saleRequestFor(product, 1), testActor)
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError for the loser, got %v", err)
		}
		rejected++
	}

	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one winner and one rejection, got %d/%d", succeeded, rejected)
	}
	if got := st.ProductStock(product.ID.Hex()); got != 0 {
		t.Fatalf("expected final stock 0, got %d", got)
	}
}

func TestRecordSaleProductNotFound(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Ghost Product", 10, 15, 10)
	st.RemoveProduct(product.ID.Hex())

	_, err := eng.RecordSale(context.Background(), saleRequestFor(product, 1), testActor)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if st.SaleCount() != 0 {
		t.Fatal("no sale may be committed for a vanished product")
	}
}

func TestRecordSaleDepletesStockThenRejects(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Premade Coil", 2, 3, 5)

	if _, err := eng.RecordSale(context.Background(), saleRequestFor(product, 5), testActor); err != nil {
		t.Fatalf("full-stock sale should succeed: %v", err)
	}
	if got := st.ProductStock(product.ID.Hex()); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}

	_, err := eng.RecordSale(context.Background(), saleRequestFor(product, 1), testActor)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 0, Requested: 1") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestRecordSaleIdempotentRejection(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Tank Glass", 1, 2, 3)
	req := saleRequestFor(product, 4)

	first := mustFail(t, eng, req)
	second := mustFail(t, eng, req)

	if first.Error() != second.Error() {
		t.Fatalf("expected deterministic rejection, got %q then %q", first, second)
	}
	if st.SaleCount() != 0 {
		t.Fatal("failed attempts must not accumulate sale records")
	}
	if got := st.ProductStock(product.ID.Hex()); got != 3 {
		t.Fatalf("failed attempts must not consume stock, got %d", got)
	}
}

func mustFail(t *testing.T, eng *Engine, req CreateSaleRequest) error {
	t.Helper()
	_, err := eng.RecordSale(context.Background(), req, testActor)
	if err == nil {
		t.Fatal("expected the sale to be rejected")
	}
	return err
}

func TestRecordSaleAuthorization(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Charger", 3, 5, 10)
	req := saleRequestFor(product, 1)

	_, err := eng.RecordSale(context.Background(), req, models.Actor{Role: "public"})
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError for public role, got %v", err)
	}

	wrongBranch := testActor
	wrongBranch.Branch = "mirpur_retail"
	_, err = eng.RecordSale(context.Background(), req, wrongBranch)
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError for wrong branch, got %v", err)
	}

	admin := models.Actor{ID: "a1", Name: "Boss", Role: models.RoleAdmin}
	if _, err := eng.RecordSale(context.Background(), req, admin); err != nil {
		t.Fatalf("admin sale should succeed regardless of branch claim: %v", err)
	}
}

func TestRecordSaleRetriesDuplicateSaleID(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Battery", 5, 9, 10)

	ids := []string{"WSALE-1-0001", "WSALE-1-0001", "WSALE-1-0002"}
	calls := 0
	eng.newSaleID = func() string {
		id := ids[calls%len(ids)]
		calls++
		return id
	}

	if _, err := eng.RecordSale(context.Background(), saleRequestFor(product, 1), testActor); err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	receipt, err := eng.RecordSale(context.Background(), saleRequestFor(product, 1), testActor)
	if err != nil {
		t.Fatalf("expected retry to allocate a fresh id: %v", err)
	}
	if receipt.SaleID != "WSALE-1-0002" {
		t.Fatalf("expected the regenerated id, got %s", receipt.SaleID)
	}
	if st.SaleCount() != 2 {
		t.Fatalf("expected 2 committed sales, got %d", st.SaleCount())
	}
}

func TestRecordSaleTwoPaymentMethods(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Pod Kit", 30, 40, 10)

	req := saleRequestFor(product, 2)
	req.Payment.Methods = []PaymentMethodRequest{
		{ID: "cash", Name: "Cash", Type: "cash", Amount: 50},
		{ID: "bkash", Name: "bKash", Type: "mobile_banking", Amount: 30},
	}
	req.Payment.TotalPaid = 80
	req.PaymentType = models.PaymentTypeMixed

	receipt, err := eng.RecordSale(context.Background(), req, testActor)
	if err != nil {
		t.Fatalf("mixed payment sale failed: %v", err)
	}

	sale, err := st.SaleBySaleID(context.Background(), receipt.SaleID)
	if err != nil {
		t.Fatalf("sale not found: %v", err)
	}
	if sale.Payment.Change != 0 {
		t.Fatalf("expected change 0, got %v", sale.Payment.Change)
	}
	if len(sale.Payment.Methods) != 2 {
		t.Fatalf("expected both payment methods persisted, got %d", len(sale.Payment.Methods))
	}
}

func TestQuerySalesRoundTrip(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Drip Tip", 1, 2, 20)

	committedAt := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	eng.now = func() time.Time { return committedAt }

	req := saleRequestFor(product, 2)
	req.Customer = CustomerRequest{Name: "Rahim Traders", Phone: "+880171234567"}

	receipt, err := eng.RecordSale(context.Background(), req, testActor)
	if err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}

	bySaleID := QuerySalesParams{SaleID: receipt.SaleID}
	byPhone := QuerySalesParams{Phone: "171234567"}

	start, end, err := ParseDateRange("2025-03-10", "2025-03-10")
	if err != nil {
		t.Fatalf("ParseDateRange failed: %v", err)
	}
	byDate := QuerySalesParams{StartDate: start, EndDate: end}

	for name, params := range map[string]QuerySalesParams{
		"saleId": bySaleID,
		"phone":  byPhone,
		"date":   byDate,
	} {
		result, pagination, err := eng.QuerySales(context.Background(), params)
		if err != nil {
			t.Fatalf("query by %s failed: %v", name, err)
		}
		if len(result) != 1 || result[0].SaleID != receipt.SaleID {
			t.Fatalf("query by %s: expected exactly the committed sale, got %d results", name, len(result))
		}
		if pagination.TotalCount != 1 || pagination.TotalPages != 1 {
			t.Fatalf("query by %s: unexpected pagination %+v", name, pagination)
		}
	}
}

func TestQuerySalesInvertedRangeRejected(t *testing.T) {
	eng, _ := newTestEngine()

	start := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := eng.QuerySales(context.Background(), QuerySalesParams{StartDate: &start, EndDate: &end})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError for inverted range, got %v", err)
	}

	if _, _, err := ParseDateRange("2025-05-02", "2025-05-01"); !errors.As(err, &valErr) {
		t.Fatalf("expected ParseDateRange to reject inverted range, got %v", err)
	}
}

func TestUpdateStatusAdminOnlyAndNoRestock(t *testing.T) {
	eng, st := newTestEngine()
	product := seedProduct(st, "Cotton", 1, 2, 10)

	receipt, err := eng.RecordSale(context.Background(), saleRequestFor(product, 4), testActor)
	if err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}

	err = eng.UpdateStatus(context.Background(), receipt.SaleID, models.SaleStatusRefunded, testActor)
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError for POS actor, got %v", err)
	}

	admin := models.Actor{ID: "a1", Role: models.RoleAdmin}
	if err := eng.UpdateStatus(context.Background(), receipt.SaleID, "shipped", admin); err == nil {
		t.Fatal("expected rejection of unknown status")
	}
	if err := eng.UpdateStatus(context.Background(), receipt.SaleID, models.SaleStatusRefunded, admin); err != nil {
		t.Fatalf("admin status update failed: %v", err)
	}

	sale, err := st.SaleBySaleID(context.Background(), receipt.SaleID)
	if err != nil {
		t.Fatalf("sale not found: %v", err)
	}
	if sale.Status != models.SaleStatusRefunded {
		t.Fatalf("expected refunded status, got %s", sale.Status)
	}
	// Refunds do not reverse the decrement.
	if got := st.ProductStock(product.ID.Hex()); got != 6 {
		t.Fatalf("expected stock to stay at 6 after refund, got %d", got)
	}

	if err := eng.UpdateStatus(context.Background(), "WSALE-missing", models.SaleStatusCancelled, admin); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown sale, got %v", err)
	}
}
