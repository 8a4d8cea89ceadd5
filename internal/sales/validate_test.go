package sales

import (
	"strings"
	"testing"

	"vwv/backend/internal/models"
)

func validRequest() CreateSaleRequest {
	return CreateSaleRequest{
		Items: []SaleItemRequest{{
			ProductID:   "64b000000000000000000010",
			ProductName: "Mango Ice 30ml",
			Branch:      testBranch,
			Quantity:    2,
			UnitPrice:   25,
			TotalPrice:  50,
		}},
		Payment: PaymentRequest{
			Methods: []PaymentMethodRequest{
				{ID: "cash", Name: "Cash", Type: "cash", Amount: 50},
			},
			TotalPaid: 50,
		},
		TotalAmount: 50,
	}
}

func expectValidationError(t *testing.T, req CreateSaleRequest, fragment string) {
	t.Helper()
	err := ValidateCreateSale(&req, testBranch)
	if err == nil {
		t.Fatalf("expected validation failure containing %q", fragment)
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("expected error containing %q, got %q", fragment, err.Error())
	}
}

func TestValidateCreateSaleAcceptsValidRequest(t *testing.T) {
	req := validRequest()
	if err := ValidateCreateSale(&req, testBranch); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.Status != models.SaleStatusCompleted {
		t.Fatalf("expected default status completed, got %q", req.Status)
	}
	if req.PaymentType != models.PaymentTypeCash {
		t.Fatalf("expected default payment type cash, got %q", req.PaymentType)
	}
	if req.Customer.Name != DefaultCustomerName {
		t.Fatalf("expected default customer name, got %q", req.Customer.Name)
	}
	if req.AdjustedAmount != 50 {
		t.Fatalf("expected recomputed adjusted amount 50, got %v", req.AdjustedAmount)
	}
}

func TestValidateCreateSaleItemRules(t *testing.T) {
	req := validRequest()
	req.Items = nil
	expectValidationError(t, req, "Items are required")

	req = validRequest()
	many := make([]SaleItemRequest, MaxItemsPerSale+1)
	for i := range many {
		many[i] = req.Items[0]
	}
	req.Items = many
	expectValidationError(t, req, "Maximum 100 items")

	req = validRequest()
	req.Items[0].ProductID = "not-an-object-id"
	expectValidationError(t, req, "Invalid product id")

	req = validRequest()
	req.Items[0].ProductName = ""
	expectValidationError(t, req, "Invalid product name")

	req = validRequest()
	req.Items[0].Quantity = 0
	expectValidationError(t, req, "Invalid quantity")

	req = validRequest()
	req.Items[0].Quantity = MaxQuantityPerItem + 1
	expectValidationError(t, req, "Invalid quantity")

	req = validRequest()
	req.Items[0].Branch = "banani_retail"
	expectValidationError(t, req, "targets branch")

	req = validRequest()
	req.Items[0].TotalPrice = 49 // 2 x 25 claimed as 49
	expectValidationError(t, req, "unit price times quantity")
}

func TestValidateCreateSalePaymentRules(t *testing.T) {
	req := validRequest()
	req.Payment.Methods = nil
	expectValidationError(t, req, "Payment methods are required")

	req = validRequest()
	req.Payment.Methods[0].ID = "paypal"
	expectValidationError(t, req, "Invalid payment method")

	req = validRequest()
	req.Payment.Methods[0].Type = "crypto"
	expectValidationError(t, req, "Invalid payment method")

	req = validRequest()
	req.Payment.Methods[0].Amount = 0
	expectValidationError(t, req, "Invalid payment method amount")

	req = validRequest()
	req.Payment.Methods[0].Amount = 45 // methods no longer reconcile with totalPaid
	expectValidationError(t, req, "do not sum")

	req = validRequest()
	req.Payment.TotalPaid = 40 // underpayment
	req.Payment.Methods[0].Amount = 40
	expectValidationError(t, req, "Insufficient payment")
}

func TestValidateCreateSaleAmountRules(t *testing.T) {
	req := validRequest()
	req.TotalAmount = 60 // items sum to 50
	expectValidationError(t, req, "sum of item totals")

	req = validRequest()
	req.Discount = -1
	expectValidationError(t, req, "Invalid discount")

	req = validRequest()
	req.Discount = 51
	expectValidationError(t, req, "Invalid discount")

	req = validRequest()
	req.Discount = 10
	req.AdjustedAmount = 45 // should be 40
	expectValidationError(t, req, "minus discount")

	req = validRequest()
	req.Discount = 10
	req.AdjustedAmount = 40
	req.Payment.TotalPaid = 40
	req.Payment.Methods[0].Amount = 40
	if err := ValidateCreateSale(&req, testBranch); err != nil {
		t.Fatalf("discounted request should validate: %v", err)
	}
}

func TestValidateCreateSaleCustomerRules(t *testing.T) {
	req := validRequest()
	req.Customer.Name = strings.Repeat("x", MaxCustomerName+1)
	expectValidationError(t, req, "Customer name too long")

	req = validRequest()
	req.Customer.Phone = "call-me-maybe"
	expectValidationError(t, req, "Invalid customer phone")

	req = validRequest()
	req.Customer.Address = strings.Repeat("x", MaxCustomerAddress+1)
	expectValidationError(t, req, "Customer address too long")

	req = validRequest()
	req.Customer = CustomerRequest{Name: "Karim Vapes", Phone: "+880 (2) 555-0199", Address: "Sector 7, Uttara"}
	if err := ValidateCreateSale(&req, testBranch); err != nil {
		t.Fatalf("well-formed customer should validate: %v", err)
	}
}

func TestValidateCreateSaleEnumRules(t *testing.T) {
	req := validRequest()
	req.Status = "archived"
	expectValidationError(t, req, "Invalid status")

	req = validRequest()
	req.PaymentType = "barter"
	expectValidationError(t, req, "Invalid payment type")
}
