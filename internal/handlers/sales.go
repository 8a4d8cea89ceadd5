package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"vwv/backend/internal/middleware"
	"vwv/backend/internal/models"
	"vwv/backend/internal/sales"
	"vwv/backend/internal/store"
)

/* =========================
   CREATE SALE
========================= */

func CreateSale(db *mongo.Database, engine *sales.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/sales"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req sales.CreateSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		receipt, err := engine.RecordSale(ctx, req, actor)
		if err != nil {
			respondWithSaleError(c, route, err)
			return
		}

		log.Printf("[%s] sale %s committed by %s, profit %.2f", route, receipt.SaleID, actor.ID, receipt.TotalProfit)
		c.JSON(http.StatusCreated, gin.H{
			"success":     true,
			"message":     "Sale processed successfully",
			"saleId":      receipt.SaleID,
			"totalProfit": receipt.TotalProfit,
		})
	}
}

// respondWithSaleError maps the engine's typed failures onto status codes.
// Infrastructure errors stay generic outside debug mode.
func respondWithSaleError(c *gin.Context, route string, err error) {
	var valErr *sales.ValidationError
	var authErr *sales.AuthorizationError
	var notFoundErr *sales.NotFoundError
	var stockErr *sales.InsufficientStockError

	switch {
	case errors.As(err, &valErr):
		respondWithError(c, http.StatusBadRequest, route, valErr.Message)
	case errors.As(err, &authErr):
		respondWithError(c, http.StatusForbidden, route, authErr.Message)
	case errors.As(err, &notFoundErr):
		respondWithError(c, http.StatusNotFound, route, notFoundErr.Error())
	case errors.As(err, &stockErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"product":   stockErr.ProductName,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	default:
		log.Printf("[%s] internal error: %v", route, err)
		message := "Internal server error"
		if gin.Mode() == gin.DebugMode {
			message = err.Error()
		}
		respondWithError(c, http.StatusInternalServerError, route, message)
	}
}

/* =========================
   LIST SALES
========================= */

func GetSales(db *mongo.Database, engine *sales.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/sales"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination parameters")
			return
		}

		startDate, endDate, err := sales.ParseDateRange(
			strings.TrimSpace(c.Query("startDate")),
			strings.TrimSpace(c.Query("endDate")),
		)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		params := sales.QuerySalesParams{
			Page:         page,
			Limit:        limit,
			StartDate:    startDate,
			EndDate:      endDate,
			PaymentType:  strings.TrimSpace(c.Query("paymentType")),
			Status:       strings.TrimSpace(c.Query("status")),
			Cashier:      strings.TrimSpace(c.Query("cashier")),
			CustomerName: strings.TrimSpace(c.Query("customerName")),
			SaleID:       strings.TrimSpace(c.Query("saleId")),
			Search:       strings.TrimSpace(c.Query("search")),
			Phone:        strings.TrimSpace(c.Query("phone")),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		result, pagination, err := engine.QuerySales(ctx, params)
		if err != nil {
			respondWithSaleError(c, route, err)
			return
		}

		log.Printf("[%s] returning %d of %d sales", route, len(result), pagination.TotalCount)
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"sales":      result,
			"pagination": pagination,
		})
	}
}

/* =========================
   UPDATE SALE STATUS (admin)
========================= */

type saleStatusUpdateRequest struct {
	SaleID string `json:"saleId" binding:"required"`
	Status string `json:"status" binding:"required"`
}

func UpdateSaleStatus(db *mongo.Database, engine *sales.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/sales"
		defer handlePanic(c, route)

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req saleStatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "saleId and status are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		err := engine.UpdateStatus(ctx, strings.TrimSpace(req.SaleID), strings.TrimSpace(req.Status), actor)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Sale not found")
			return
		}
		if err != nil {
			respondWithSaleError(c, route, err)
			return
		}

		log.Printf("[%s] sale %s set to %s by %s", route, req.SaleID, req.Status, actor.ID)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Sale status updated successfully",
		})
	}
}

/* =========================
   DELETE SALE (admin)
========================= */

func DeleteSale(db *mongo.Database, engine *sales.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/sales"
		defer handlePanic(c, route)

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if actor.Role != models.RoleAdmin {
			respondWithError(c, http.StatusForbidden, route, "Only admins can delete sales")
			return
		}

		saleID := strings.TrimSpace(c.Query("saleId"))
		if saleID == "" {
			respondWithError(c, http.StatusBadRequest, route, "saleId is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		err := engine.DeleteSale(ctx, saleID, actor)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Sale not found")
			return
		}
		if err != nil {
			respondWithSaleError(c, route, err)
			return
		}

		log.Printf("[%s] sale %s deleted by %s", route, saleID, actor.ID)
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       "Sale deleted successfully",
			"deletedSaleId": saleID,
		})
	}
}
