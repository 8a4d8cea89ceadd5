package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxImagesPerProduct caps the ordered image list stored on a product.
const MaxImagesPerProduct = 10

// ProductImage holds the metadata for one uploaded product image. The binary
// lives in external storage; only url/publicId/alt are kept here.
type ProductImage struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
	Alt      string `bson:"alt,omitempty" json:"alt,omitempty"`
}

// Product is the catalog document. Stock is the single authoritative
// inventory counter; it is decremented only inside a sale transaction.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Brand        string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Barcode      string             `bson:"barcode,omitempty" json:"barcode,omitempty"`
	Category     string             `bson:"category" json:"category"`
	Subcategory  string             `bson:"subcategory" json:"subcategory"`
	Price        float64            `bson:"price" json:"price"`
	BuyingPrice  float64            `bson:"buyingPrice" json:"buyingPrice"`
	ComparePrice *float64           `bson:"comparePrice,omitempty" json:"comparePrice,omitempty"`
	Stock        int                `bson:"stock" json:"stock"`
	Status       string             `bson:"status" json:"status"`
	Flavor       string             `bson:"flavor,omitempty" json:"flavor,omitempty"`
	Images       []ProductImage     `bson:"images,omitempty" json:"images,omitempty"`
	Branch       string             `bson:"branch" json:"branch"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	CreatedBy    string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy    string             `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
	ProductStatusDraft    = "draft"
)

func IsValidProductStatus(status string) bool {
	switch status {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}
