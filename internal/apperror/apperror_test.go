package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("missing %s", "name"), http.StatusBadRequest},
		{Stock(uuid.New(), "Marlboro Red", 1, 2), http.StatusBadRequest},
		{NotFound("Order not found"), http.StatusNotFound},
		{Auth("invalid email or password"), http.StatusUnauthorized},
		{Forbidden("admin only"), http.StatusForbidden},
		{Unavailable("storage disabled"), http.StatusServiceUnavailable},
		{Internal(errors.New("boom"), "Failed"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), tt.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("placing order: %w", NotFound("Product not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, "Product not found", PublicMessage(err))
}

func TestStockMessage(t *testing.T) {
	id := uuid.MustParse("6f1c0a52-8a53-4a63-9d8a-8c7b7c6f0a01")
	err := Stock(id, "Marlboro Red", 1, 2)
	assert.Contains(t, err.Error(), "Not enough stock")
	assert.Contains(t, err.Error(), id.String())
	assert.Contains(t, err.Error(), "Available: 1, Requested: 2")
}

func TestPublicMessageHidesCause(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: relation does not exist")))
	assert.Equal(t, "Failed to place order", PublicMessage(Internal(errors.New("tx aborted"), "Failed to place order")))
}
