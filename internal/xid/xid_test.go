package xid

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSaleNumber(t *testing.T) {
	at := time.Date(2026, 3, 7, 9, 5, 42, 0, time.UTC)
	assert.Equal(t, "07-03-2026-0905", SaleNumber(at))
}

func TestNewCartIDIsUUID(t *testing.T) {
	id := NewCartID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewCartID())
}
