package sales

import (
	"math"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vwv/backend/internal/models"
)

// Request bounds. Quantity limits are higher than retail because carts are
// wholesale-sized.
const (
	MaxItemsPerSale      = 100
	MaxQuantityPerItem   = 10000
	MaxProductNameLength = 200
	MaxUnitPrice         = 9999999
	MaxSaleAmount        = 99999999
	MaxCustomerName      = 100
	MaxCustomerPhone     = 20
	MaxCustomerAddress   = 300
	DefaultCustomerName  = "Walk-in Customer"

	amountTolerance = 0.01
)

var phonePattern = regexp.MustCompile(`^[+\-0-9\s()]{0,20}$`)

// SaleItemRequest is a candidate line item as submitted by a POS client.
// Only identity and requested quantity are ultimately trusted; prices are
// cross-checked here and buying price is always re-read from the catalog.
type SaleItemRequest struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Branch      string  `json:"branch"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

type PaymentMethodRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type PaymentRequest struct {
	Methods   []PaymentMethodRequest `json:"methods"`
	TotalPaid float64                `json:"totalPaid"`
}

type CustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateSaleRequest is the full candidate sale.
type CreateSaleRequest struct {
	Customer       CustomerRequest      `json:"customer"`
	Items          []SaleItemRequest    `json:"items"`
	Payment        PaymentRequest       `json:"payment"`
	TotalAmount    float64              `json:"totalAmount"`
	Discount       float64              `json:"discount"`
	AdjustedAmount float64              `json:"adjustedAmount"`
	Status         string               `json:"status"`
	PaymentType    string               `json:"paymentType"`
	Cashier        string               `json:"cashier"`
}

var validPaymentMethodIDs = map[string]bool{
	"cash":          true,
	"bkash":         true,
	"bank":          true,
	"bank_transfer": true,
}

var validPaymentMethodTypes = map[string]bool{
	"cash":           true,
	"mobile_banking": true,
	"bank_transfer":  true,
}

// ValidateCreateSale checks the request against structural and business
// rules, normalizing it in place (trimmed strings, defaulted customer name,
// status and payment type, recomputed adjusted amount). It performs no I/O;
// stock and buying prices are only checked later inside the transaction.
func ValidateCreateSale(req *CreateSaleRequest, branch string) error {
	if len(req.Items) == 0 {
		return validationErrorf("Items are required and must be a non-empty array")
	}
	if len(req.Items) > MaxItemsPerSale {
		return validationErrorf("Maximum %d items allowed per sale", MaxItemsPerSale)
	}

	itemsTotal := 0.0
	for i := range req.Items {
		if err := validateSaleItem(i, &req.Items[i], branch); err != nil {
			return err
		}
		itemsTotal += req.Items[i].TotalPrice
	}

	if len(req.Payment.Methods) == 0 {
		return validationErrorf("Payment methods are required")
	}
	methodsTotal := 0.0
	for i := range req.Payment.Methods {
		if err := validatePaymentMethod(i, &req.Payment.Methods[i]); err != nil {
			return err
		}
		methodsTotal += req.Payment.Methods[i].Amount
	}

	if !isFiniteAmount(req.TotalAmount) || req.TotalAmount <= 0 || req.TotalAmount > MaxSaleAmount {
		return validationErrorf("Invalid total amount")
	}
	if math.Abs(itemsTotal-req.TotalAmount) >= amountTolerance {
		return validationErrorf("Total amount does not match the sum of item totals")
	}

	if !isFiniteAmount(req.Discount) || req.Discount < 0 || req.Discount > req.TotalAmount {
		return validationErrorf("Invalid discount amount")
	}

	// The adjusted amount is always recomputed; a client-supplied value is
	// only cross-checked, never trusted.
	adjusted := req.TotalAmount - req.Discount
	if req.AdjustedAmount != 0 && math.Abs(req.AdjustedAmount-adjusted) >= amountTolerance {
		return validationErrorf("Adjusted amount must equal total amount minus discount")
	}
	req.AdjustedAmount = adjusted

	if !isFiniteAmount(req.Payment.TotalPaid) || req.Payment.TotalPaid <= 0 || req.Payment.TotalPaid > MaxSaleAmount {
		return validationErrorf("Invalid total paid amount")
	}
	if math.Abs(methodsTotal-req.Payment.TotalPaid) >= amountTolerance {
		return validationErrorf("Payment methods do not sum to the total paid amount")
	}
	if req.Payment.TotalPaid < adjusted-amountTolerance {
		return validationErrorf("Insufficient payment amount")
	}

	if err := validateCustomer(&req.Customer); err != nil {
		return err
	}

	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = models.SaleStatusCompleted
	}
	if !models.IsValidSaleStatus(req.Status) {
		return validationErrorf("Invalid status value")
	}

	req.PaymentType = strings.TrimSpace(req.PaymentType)
	if req.PaymentType == "" {
		req.PaymentType = models.PaymentTypeCash
	}
	if !models.IsValidPaymentType(req.PaymentType) {
		return validationErrorf("Invalid payment type")
	}

	req.Cashier = strings.TrimSpace(req.Cashier)

	return nil
}

func validateSaleItem(index int, item *SaleItemRequest, branch string) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if _, err := primitive.ObjectIDFromHex(item.ProductID); err != nil {
		return validationErrorf("Invalid product id at item %d", index)
	}

	item.ProductName = strings.TrimSpace(item.ProductName)
	if item.ProductName == "" || len(item.ProductName) > MaxProductNameLength {
		return validationErrorf("Invalid product name at item %d", index)
	}

	if item.Branch != branch {
		return validationErrorf("Item %d targets branch %q, terminal operates %q", index, item.Branch, branch)
	}

	if item.Quantity <= 0 || item.Quantity > MaxQuantityPerItem {
		return validationErrorf("Invalid quantity at item %d", index)
	}

	if !isFiniteAmount(item.UnitPrice) || item.UnitPrice < 0 || item.UnitPrice > MaxUnitPrice {
		return validationErrorf("Invalid unit price at item %d", index)
	}
	if !isFiniteAmount(item.TotalPrice) || item.TotalPrice < 0 || item.TotalPrice > MaxSaleAmount {
		return validationErrorf("Invalid total price at item %d", index)
	}
	if math.Abs(item.TotalPrice-item.UnitPrice*float64(item.Quantity)) >= amountTolerance {
		return validationErrorf("Total price does not equal unit price times quantity at item %d", index)
	}

	return nil
}

func validatePaymentMethod(index int, method *PaymentMethodRequest) error {
	method.ID = strings.TrimSpace(method.ID)
	method.Name = strings.TrimSpace(method.Name)
	method.Type = strings.TrimSpace(method.Type)

	if !validPaymentMethodIDs[method.ID] || !validPaymentMethodTypes[method.Type] || method.Name == "" {
		return validationErrorf("Invalid payment method at index %d", index)
	}
	if !isFiniteAmount(method.Amount) || method.Amount <= 0 || method.Amount > MaxSaleAmount {
		return validationErrorf("Invalid payment method amount at index %d", index)
	}
	return nil
}

func validateCustomer(customer *CustomerRequest) error {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Name == "" {
		customer.Name = DefaultCustomerName
	}
	if len(customer.Name) > MaxCustomerName {
		return validationErrorf("Customer name too long (max %d characters)", MaxCustomerName)
	}

	customer.Phone = strings.TrimSpace(customer.Phone)
	if customer.Phone != "" && (len(customer.Phone) > MaxCustomerPhone || !phonePattern.MatchString(customer.Phone)) {
		return validationErrorf("Invalid customer phone format")
	}

	customer.Address = strings.TrimSpace(customer.Address)
	if len(customer.Address) > MaxCustomerAddress {
		return validationErrorf("Customer address too long (max %d characters)", MaxCustomerAddress)
	}

	return nil
}

func isFiniteAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
