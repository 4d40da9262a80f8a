package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

func storedRequest(t *testing.T, requests port.PurchaseRequestRepository, number string) *entity.PurchaseRequest {
	t.Helper()
	request := &entity.PurchaseRequest{
		Number:      number,
		RequesterID: 7,
		Amount:      decimal.NewFromInt(500),
		Status:      entity.RequestStatusSubmitted,
		Lines: []entity.RequestLine{
			{ArticleCode: "ART-A", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, requests.Create(context.Background(), request))
	return request
}

func TestPurchaseRequestRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	requests := NewPurchaseRequestRepository(db.DB, zap.NewNop())

	created := storedRequest(t, requests, "DA-20240315-0001")
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	loaded, err := requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "DA-20240315-0001", loaded.Number)
	assert.Equal(t, entity.RequestStatusSubmitted, loaded.Status)
	assert.True(t, loaded.Amount.Equal(decimal.NewFromInt(500)))
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "ART-A", loaded.Lines[0].ArticleCode)
}

func TestPurchaseRequestRepository_GetUnknownID(t *testing.T) {
	db := newTestDB(t)
	requests := NewPurchaseRequestRepository(db.DB, zap.NewNop())

	_, err := requests.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestPurchaseRequestRepository_UpdateStaleVersionConflict(t *testing.T) {
	db := newTestDB(t)
	requests := NewPurchaseRequestRepository(db.DB, zap.NewNop())

	created := storedRequest(t, requests, "DA-20240315-0001")

	// Two actors load the same submitted request
	first, err := requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	first.Status = entity.RequestStatusPendingFinance
	require.NoError(t, requests.Update(context.Background(), first))
	assert.Equal(t, int64(2), first.Version)

	// The second write still carries version 1 and must lose
	second.Status = entity.RequestStatusCancelled
	err = requests.Update(context.Background(), second)
	require.ErrorIs(t, err, port.ErrVersionConflict)

	current, err := requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPendingFinance, current.Status, "the losing write changed nothing")
	assert.Equal(t, int64(2), current.Version)
}
