package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderPayloadBodyMatchesType(t *testing.T) {
	sale := &service.SaleOrder{Items: []service.SaleItem{{ProductID: "x", Quantity: 1}}}
	purchase := &service.PurchaseOrder{}
	personal := &service.PersonalOrder{TotalAmount: decimal.NewFromInt(50)}

	tests := []struct {
		name    string
		payload CreateOrderPayload
		want    bool
	}{
		{"sale with sale body", CreateOrderPayload{TransactionType: "sale", Sale: sale}, true},
		{"purchase with purchase body", CreateOrderPayload{TransactionType: "purchase", Purchase: purchase}, true},
		{"personal with personal body", CreateOrderPayload{TransactionType: "personal", Personal: personal}, true},
		{"sale with personal body", CreateOrderPayload{TransactionType: "sale", Personal: personal}, false},
		{"personal with sale body", CreateOrderPayload{TransactionType: "personal", Sale: sale}, false},
		{"sale with two bodies", CreateOrderPayload{TransactionType: "sale", Sale: sale, Personal: personal}, false},
		{"sale with no body", CreateOrderPayload{TransactionType: "sale"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payload.bodyMatchesType())
		})
	}
}

func TestCreateOrderRejectsMismatchedVariant(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// The mismatch is rejected before the service is consulted.
	h := NewOrderHandler(nil)

	body := `{"transaction_type":"sale","payment_mode":"cash","personal":{"total_amount":100}}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sale variant")
}
