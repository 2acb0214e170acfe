package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBlendCost(t *testing.T) {
	tests := []struct {
		name         string
		existingQty  int
		existingCost string
		incomingQty  int
		incomingCost string
		want         string
	}{
		{"equal volumes", 10, "100", 10, "200", "150"},
		{"restock dominates", 1, "100", 9, "200", "190"},
		{"first intake", 0, "0", 5, "80", "80"},
		{"no units", 0, "0", 0, "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlendCost(
				tt.existingQty, decimal.RequireFromString(tt.existingCost),
				tt.incomingQty, decimal.RequireFromString(tt.incomingCost),
			)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"expected %s, got %s", tt.want, got)
		})
	}
}
