package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vwv/backend/internal/models"
)

// GetCategories serves the fixed catalog taxonomy. It never changes at
// runtime, so there is no database behind it.
func GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
	}
}
