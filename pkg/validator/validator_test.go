package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ProductID uuid.UUID        `json:"productId" validate:"uuid_required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal  `json:"price" validate:"gt=0"`
	Tar       *decimal.Decimal `json:"tar" validate:"omitempty,gte=0"`
}

type cart struct {
	Name  string `json:"customerName" validate:"required"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func TestValidateStruct_Valid(t *testing.T) {
	c := cart{Name: "Ana", Items: []item{{ProductID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(5)}}}
	assert.Empty(t, ValidateStruct(c))
}

func TestValidateStruct_ReportsJSONNames(t *testing.T) {
	errs := ValidateStruct(cart{})
	require.NotEmpty(t, errs)
	assert.Equal(t, "customerName", errs[0].FailedField)
	assert.Equal(t, "required", errs[0].Tag)
	assert.Contains(t, Describe(errs), "customerName")
}

func TestValidateStruct_NestedItems(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	c := cart{Name: "Ana", Items: []item{{Quantity: 0, Price: decimal.Zero, Tar: &neg}}}

	fields := map[string]string{}
	for _, e := range ValidateStruct(c) {
		fields[e.FailedField] = e.Tag
	}

	assert.Equal(t, "uuid_required", fields["items[0].productId"])
	assert.Equal(t, "gt", fields["items[0].quantity"])
	assert.Equal(t, "gt", fields["items[0].price"])
	assert.Equal(t, "gte", fields["items[0].tar"])
}

func TestValidateStruct_EmptyItems(t *testing.T) {
	errs := ValidateStruct(cart{Name: "Ana", Items: []item{}})
	require.Len(t, errs, 1)
	assert.Equal(t, "items", errs[0].FailedField)
	assert.Equal(t, "min", errs[0].Tag)
}
