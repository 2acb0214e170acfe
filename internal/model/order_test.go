package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusCompleted, OrderStatusPending, true}, // refund path
		{OrderStatusCompleted, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusPending, false},
		{"unknown", OrderStatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
