package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vwv/backend/internal/sales"
)

func TestRespondWithSaleErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &sales.ValidationError{Message: "items are required"}, http.StatusBadRequest},
		{"authorization", &sales.AuthorizationError{Message: "branch mismatch"}, http.StatusForbidden},
		{"not found", &sales.NotFoundError{ProductID: "p1", ProductName: "Mango Ice"}, http.StatusNotFound},
		{"stock", &sales.InsufficientStockError{ProductName: "Mango Ice", Available: 1, Requested: 3}, http.StatusConflict},
		{"infrastructure", errors.New("socket closed"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		recorder := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(recorder)

		respondWithSaleError(c, "POST /api/sales", tc.err)

		if recorder.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, recorder.Code)
		}
	}
}

func TestRespondWithSaleErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondWithSaleError(c, "POST /api/sales", errors.New("mongo: connection refused at 10.0.0.5"))

	if strings.Contains(recorder.Body.String(), "10.0.0.5") {
		t.Fatalf("internal detail leaked into response: %s", recorder.Body.String())
	}
}

func TestRespondWithSaleErrorStockPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondWithSaleError(c, "POST /api/sales", &sales.InsufficientStockError{
		ProductName: "Mango Ice",
		Available:   2,
		Requested:   5,
	})

	body := recorder.Body.String()
	for _, fragment := range []string{"\"available\":2", "\"requested\":5", "Mango Ice"} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected %s in body, got %s", fragment, body)
		}
	}
}
