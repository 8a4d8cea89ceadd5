package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleItem is a value snapshot of one line item at transaction time. Product
// facts (name, category, buying price) are frozen here so historical sales
// stay accurate after the product is edited or deleted.
type SaleItem struct {
	ProductID   string  `bson:"productId" json:"productId"`
	ProductName string  `bson:"productName" json:"productName"`
	Category    string  `bson:"category,omitempty" json:"category,omitempty"`
	Subcategory string  `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Branch      string  `bson:"branch" json:"branch"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unitPrice" json:"unitPrice"`
	BuyingPrice float64 `bson:"buyingPrice" json:"buyingPrice"`
	TotalPrice  float64 `bson:"totalPrice" json:"totalPrice"`
	CostOfGoods float64 `bson:"costOfGoods" json:"costOfGoods"`
	Profit      float64 `bson:"profit" json:"profit"`
}

// SaleCustomer carries optional walk-in customer contact details.
type SaleCustomer struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// PaymentMethod is one tender used to settle a sale.
type PaymentMethod struct {
	ID     string  `bson:"id" json:"id"`
	Name   string  `bson:"name" json:"name"`
	Type   string  `bson:"type" json:"type"`
	Amount float64 `bson:"amount" json:"amount"`
}

// SalePayment groups the tenders and the settlement totals.
type SalePayment struct {
	Methods     []PaymentMethod `bson:"methods" json:"methods"`
	TotalAmount float64         `bson:"totalAmount" json:"totalAmount"`
	TotalPaid   float64         `bson:"totalPaid" json:"totalPaid"`
	Change      float64         `bson:"change" json:"change"`
}

// Sale is the immutable transaction record. Once committed, status is the
// only field an admin may change; createdAt never moves.
type Sale struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SaleID         string             `bson:"saleId" json:"saleId"`
	Customer       SaleCustomer       `bson:"customer" json:"customer"`
	Items          []SaleItem         `bson:"items" json:"items"`
	Payment        SalePayment        `bson:"payment" json:"payment"`
	TotalAmount    float64            `bson:"totalAmount" json:"totalAmount"`
	Discount       float64            `bson:"discount" json:"discount"`
	AdjustedAmount float64            `bson:"adjustedAmount" json:"adjustedAmount"`
	TotalProfit    float64            `bson:"totalProfit" json:"totalProfit"`
	PaymentType    string             `bson:"paymentType" json:"paymentType"`
	Status         string             `bson:"status" json:"status"`
	Branch         string             `bson:"branch" json:"branch"`
	Cashier        string             `bson:"cashier" json:"cashier"`
	CashierRole    string             `bson:"cashierRole" json:"cashierRole"`
	CreatedBy      string             `bson:"createdBy" json:"createdBy"`
	UpdatedBy      string             `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
	SaleStatusRefunded  = "refunded"
)

func IsValidSaleStatus(status string) bool {
	switch status {
	case SaleStatusCompleted, SaleStatusPending, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// Payment type values; "mixed" marks a sale settled with multiple tenders.
const (
	PaymentTypeCash          = "cash"
	PaymentTypeMobileBanking = "mobile_banking"
	PaymentTypeBankTransfer  = "bank_transfer"
	PaymentTypeMixed         = "mixed"
)

func IsValidPaymentType(paymentType string) bool {
	switch paymentType {
	case PaymentTypeCash, PaymentTypeMobileBanking, PaymentTypeBankTransfer, PaymentTypeMixed:
		return true
	}
	return false
}
