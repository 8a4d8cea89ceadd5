package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vwv/backend/internal/middleware"
	"vwv/backend/internal/models"
)

/* =======================
   REQUEST MODELS
======================= */

const (
	maxProductNameLength = 100
	maxDescriptionWords  = 2000
	maxProductStock      = 999999
	maxProductPrice      = 999999
	maxBarcodeLength     = 50
)

type productImageRequest struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Alt      string `json:"alt"`
}

type productCreateRequest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Brand        string                `json:"brand"`
	Barcode      string                `json:"barcode"`
	Category     string                `json:"category"`
	Subcategory  string                `json:"subcategory"`
	Price        *float64              `json:"price"`
	BuyingPrice  *float64              `json:"buyingPrice"`
	ComparePrice *float64              `json:"comparePrice"`
	Stock        *int                  `json:"stock"`
	Status       string                `json:"status"`
	Flavor       string                `json:"flavor"`
	Images       []productImageRequest `json:"images"`
}

type productUpdateRequest struct {
	Name         *string                `json:"name"`
	Description  *string                `json:"description"`
	Brand        *string                `json:"brand"`
	Barcode      *string                `json:"barcode"`
	Category     *string                `json:"category"`
	Subcategory  *string                `json:"subcategory"`
	Price        *float64               `json:"price"`
	BuyingPrice  *float64               `json:"buyingPrice"`
	ComparePrice *float64               `json:"comparePrice"`
	Stock        *int                   `json:"stock"`
	Status       *string                `json:"status"`
	Flavor       *string                `json:"flavor"`
	ImageOrder   *[]productImageRequest `json:"imageOrder"`
}

/* =======================
   HELPERS
======================= */

func validPrice(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0 && value <= maxProductPrice
}

func buildProductImages(images []productImageRequest) []models.ProductImage {
	out := make([]models.ProductImage, 0, len(images))
	for _, img := range images {
		url := strings.TrimSpace(img.URL)
		publicID := strings.TrimSpace(img.PublicID)
		if url == "" || publicID == "" {
			continue
		}
		alt := strings.TrimSpace(img.Alt)
		if alt == "" {
			alt = "Product image"
		}
		out = append(out, models.ProductImage{URL: url, PublicID: publicID, Alt: alt})
		if len(out) == models.MaxImagesPerProduct {
			break
		}
	}
	return out
}

func barcodeInUse(ctx context.Context, db *mongo.Database, barcode string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"barcode": barcode}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := db.Collection("products").CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

/* =======================
   LIST
======================= */

func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		status := strings.TrimSpace(c.Query("status"))
		if status == "" {
			status = models.ProductStatusActive
		}
		if !models.IsValidProductStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status value")
			return
		}

		filter := bson.M{"status": status}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = bson.M{"$regex": "^" + category + "$", "$options": "i"}
		}
		if subcategory := strings.TrimSpace(c.Query("subcategory")); subcategory != "" {
			filter["subcategory"] = bson.M{"$regex": subcategory, "$options": "i"}
		}
		if barcode := strings.TrimSpace(c.Query("barcode")); barcode != "" {
			filter["barcode"] = barcode
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"brand": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
				{"barcode": bson.M{"$regex": search, "$options": "i"}},
				{"flavor": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalPages := int64(0)
		if total > 0 {
			totalPages = int64(math.Ceil(float64(total) / float64(limit)))
		}

		opts := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := db.Collection("products").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"products": products,
			"pagination": gin.H{
				"currentPage": page,
				"totalPages":  totalPages,
				"totalCount":  total,
				"hasNextPage": page < totalPages,
				"hasPrevPage": page > 1,
				"limit":       limit,
			},
		})
	}
}

/* =======================
   GET ONE
======================= */

func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(db *mongo.Database, branch string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		actor, _ := middleware.ActorFrom(c)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" || req.Price == nil || strings.TrimSpace(req.Category) == "" {
			respondWithError(c, http.StatusBadRequest, route, "Name, price, and category are required")
			return
		}
		if len(name) > maxProductNameLength {
			respondWithError(c, http.StatusBadRequest, route, "Product name too long")
			return
		}
		description := strings.TrimSpace(req.Description)
		if description != "" && len(strings.Fields(description)) > maxDescriptionWords {
			respondWithError(c, http.StatusBadRequest, route, "Description too long")
			return
		}

		if !validPrice(*req.Price) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid price value")
			return
		}
		buyingPrice := 0.0
		if req.BuyingPrice != nil {
			if !validPrice(*req.BuyingPrice) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid buying price value")
				return
			}
			buyingPrice = *req.BuyingPrice
		}
		if req.ComparePrice != nil && !validPrice(*req.ComparePrice) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid compare price value")
			return
		}

		category := strings.TrimSpace(req.Category)
		subcategory := strings.TrimSpace(req.Subcategory)
		if !models.IsValidCategoryAndSubcategory(category, subcategory) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid category or subcategory")
			return
		}

		stock := 0
		if req.Stock != nil {
			if *req.Stock < 0 || *req.Stock > maxProductStock {
				respondWithError(c, http.StatusBadRequest, route, "Invalid stock value")
				return
			}
			stock = *req.Stock
		}

		status := strings.TrimSpace(req.Status)
		if status == "" {
			status = models.ProductStatusActive
		}
		if !models.IsValidProductStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid status value")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		barcode := strings.TrimSpace(req.Barcode)
		if barcode != "" {
			if len(barcode) > maxBarcodeLength {
				respondWithError(c, http.StatusBadRequest, route, "Invalid barcode format")
				return
			}
			used, err := barcodeInUse(ctx, db, barcode, primitive.NilObjectID)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if used {
				respondWithError(c, http.StatusBadRequest, route, "Barcode already exists for another product")
				return
			}
		}

		now := time.Now()
		product := models.Product{
			Name:         name,
			Description:  description,
			Brand:        strings.TrimSpace(req.Brand),
			Barcode:      barcode,
			Category:     category,
			Subcategory:  subcategory,
			Price:        *req.Price,
			BuyingPrice:  buyingPrice,
			ComparePrice: req.ComparePrice,
			Stock:        stock,
			Status:       status,
			Flavor:       strings.TrimSpace(req.Flavor),
			Images:       buildProductImages(req.Images),
			Branch:       branch,
			CreatedAt:    now,
			UpdatedAt:    now,
			CreatedBy:    actor.ID,
		}

		result, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, route, "Barcode already exists for another product")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.ID = result.InsertedID.(primitive.ObjectID)

		log.Printf("[%s] product %s created by %s", route, product.ID.Hex(), actor.ID)
		c.JSON(http.StatusCreated, gin.H{
			"message": "Product created successfully",
			"product": product,
		})
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		actor, _ := middleware.ActorFrom(c)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var existing models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		update := bson.M{
			"updatedAt": time.Now(),
			"updatedBy": actor.ID,
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" || len(name) > maxProductNameLength {
				respondWithError(c, http.StatusBadRequest, route, "Invalid product name")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			description := strings.TrimSpace(*req.Description)
			if description != "" && len(strings.Fields(description)) > maxDescriptionWords {
				respondWithError(c, http.StatusBadRequest, route, "Description too long")
				return
			}
			update["description"] = description
		}
		if req.Brand != nil {
			update["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.Flavor != nil {
			update["flavor"] = strings.TrimSpace(*req.Flavor)
		}

		if req.Price != nil {
			if !validPrice(*req.Price) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid price value")
				return
			}
			update["price"] = *req.Price
		}
		if req.BuyingPrice != nil {
			if !validPrice(*req.BuyingPrice) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid buying price value")
				return
			}
			update["buyingPrice"] = *req.BuyingPrice
		}
		if req.ComparePrice != nil {
			if !validPrice(*req.ComparePrice) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid compare price value")
				return
			}
			update["comparePrice"] = *req.ComparePrice
		}

		// Category and subcategory move together so the pair can be checked
		// against the fixed taxonomy.
		if req.Category != nil || req.Subcategory != nil {
			category := existing.Category
			subcategory := existing.Subcategory
			if req.Category != nil {
				category = strings.TrimSpace(*req.Category)
			}
			if req.Subcategory != nil {
				subcategory = strings.TrimSpace(*req.Subcategory)
			}
			if !models.IsValidCategoryAndSubcategory(category, subcategory) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid category or subcategory")
				return
			}
			update["category"] = category
			update["subcategory"] = subcategory
		}

		if req.Stock != nil {
			if *req.Stock < 0 || *req.Stock > maxProductStock {
				respondWithError(c, http.StatusBadRequest, route, "Invalid stock value")
				return
			}
			update["stock"] = *req.Stock
		}

		if req.Status != nil {
			if !models.IsValidProductStatus(*req.Status) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid status value")
				return
			}
			update["status"] = *req.Status
		}

		if req.Barcode != nil {
			barcode := strings.TrimSpace(*req.Barcode)
			if len(barcode) > maxBarcodeLength {
				respondWithError(c, http.StatusBadRequest, route, "Invalid barcode format")
				return
			}
			if barcode != "" && barcode != existing.Barcode {
				used, err := barcodeInUse(ctx, db, barcode, id)
				if err != nil {
					respondWithError(c, http.StatusInternalServerError, route, "db error")
					return
				}
				if used {
					respondWithError(c, http.StatusBadRequest, route, "Barcode already exists for another product")
					return
				}
			}
			update["barcode"] = barcode
		}

		if req.ImageOrder != nil {
			images := buildProductImages(*req.ImageOrder)
			if len(images) > 0 {
				update["images"] = images
			}
		}

		var updated models.Product
		err = db.Collection("products").
			FindOneAndUpdate(
				ctx,
				bson.M{"_id": id},
				bson.M{"$set": update},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).
			Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] product %s updated by %s", route, id.Hex(), actor.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": "Product updated successfully",
			"product": updated,
		})
	}
}

/* =======================
   DELETE
======================= */

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		actor, _ := middleware.ActorFrom(c)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		result, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		// Locally stored images go with the product. Historical sales keep
		// their snapshots and are unaffected.
		for _, image := range product.Images {
			if err := safeDeleteUpload(image.URL); err != nil {
				log.Printf("[%s] image cleanup failed for %s: %v", route, image.PublicID, err)
			}
		}

		log.Printf("[%s] product %s deleted by %s", route, id.Hex(), actor.ID)
		c.JSON(http.StatusOK, gin.H{
			"message":   "Product deleted successfully",
			"deletedId": id.Hex(),
		})
	}
}
