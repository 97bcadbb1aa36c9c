package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("REFUNDED").Valid())
	assert.False(t, OrderStatus("pending").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatus_StrictGraph(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
}

func TestOrder_LinesTotalAndItemCount(t *testing.T) {
	o := Order{Lines: []OrderLine{
		{Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{Quantity: 3, Price: decimal.RequireFromString("4.50")},
	}}

	assert.True(t, o.LinesTotal().Equal(decimal.RequireFromString("33.50")))
	assert.Equal(t, 5, o.ItemCount())
}

func TestDecimalEncodesAsNumber(t *testing.T) {
	b, err := json.Marshal(Product{Price: decimal.RequireFromString("55.5")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":55.5`)
	assert.Contains(t, string(b), `"tarContent":null`)
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("secret1"))
	assert.NotEqual(t, "secret1", u.Password)
	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("secret2"))
}
