package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

type proformaFixture struct {
	service ProformaService
	request *entity.PurchaseRequest
	active  *entity.Proforma
	stored  *entity.Proforma
	order   *entity.PurchaseOrder
}

func newProformaFixture(t *testing.T, stored *entity.Proforma) *proformaFixture {
	t.Helper()
	f := &proformaFixture{
		request: &entity.PurchaseRequest{
			ID: 2, Number: "DA-20240315-0001",
			RequesterID: 7,
			Status:      entity.RequestStatusApproved,
			Lines: []entity.RequestLine{
				{ArticleCode: "ART-A", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100)},
			},
		},
		stored: stored,
	}
	proformas := &mockProformaRepo{
		CreateFn: func(ctx context.Context, proforma *entity.Proforma) error {
			proforma.ID = 5
			f.stored = proforma
			return nil
		},
		GetByIDFn: func(ctx context.Context, id int64) (*entity.Proforma, error) {
			if f.stored == nil {
				return nil, port.ErrNotFound
			}
			return f.stored, nil
		},
		GetActiveByRequestFn: func(ctx context.Context, requestID int64) (*entity.Proforma, error) {
			return f.active, nil
		},
		UpdateFn: func(ctx context.Context, proforma *entity.Proforma) error {
			f.stored = proforma
			return nil
		},
	}
	requests := &mockRequestRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
			return f.request, nil
		},
	}
	orders := &mockOrderRepo{
		CreateFn: func(ctx context.Context, order *entity.PurchaseOrder) error {
			order.ID = 3
			f.order = order
			return nil
		},
	}
	f.service = NewProformaService(
		proformas, requests, orders, &mockTxManager{}, testNumbering(),
		decimal.RequireFromString("0.18"), &mockAudit{}, nopLogger{})
	return f
}

func TestProformaService_CreateFromRequest(t *testing.T) {
	f := newProformaFixture(t, nil)

	proforma, err := f.service.CreateFromRequest(context.Background(), entity.Actor{ID: 4}, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, entity.ProformaStatusDraft, proforma.Status)
	assert.Equal(t, int64(2), proforma.RequestID)
	assert.Equal(t, int64(20), proforma.SupplierID)
	assert.Equal(t, "PF000001", proforma.Number)
}

func TestProformaService_CreateRequiresApprovedRequest(t *testing.T) {
	f := newProformaFixture(t, nil)
	f.request.Status = entity.RequestStatusSubmitted

	_, err := f.service.CreateFromRequest(context.Background(), entity.Actor{ID: 4}, 2, 20)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestProformaService_CreateRefusedWhileActiveExists(t *testing.T) {
	f := newProformaFixture(t, nil)
	f.active = &entity.Proforma{ID: 9, Number: "PF000009", RequestID: 2, Status: entity.ProformaStatusDraft}

	_, err := f.service.CreateFromRequest(context.Background(), entity.Actor{ID: 4}, 2, 20)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.ErrorContains(t, err, "PF000009")
}

func TestProformaService_AcceptAndReject(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		f := newProformaFixture(t, &entity.Proforma{ID: 5, RequestID: 2, Status: entity.ProformaStatusDraft})
		proforma, err := f.service.Accept(context.Background(), 5, entity.Actor{ID: 4})
		require.NoError(t, err)
		assert.Equal(t, entity.ProformaStatusAccepted, proforma.Status)
	})
	t.Run("reject", func(t *testing.T) {
		f := newProformaFixture(t, &entity.Proforma{ID: 5, RequestID: 2, Status: entity.ProformaStatusDraft})
		proforma, err := f.service.Reject(context.Background(), 5, entity.Actor{ID: 4})
		require.NoError(t, err)
		assert.Equal(t, entity.ProformaStatusRejected, proforma.Status)
	})
	t.Run("accept twice refused", func(t *testing.T) {
		f := newProformaFixture(t, &entity.Proforma{ID: 5, RequestID: 2, Status: entity.ProformaStatusAccepted})
		_, err := f.service.Accept(context.Background(), 5, entity.Actor{ID: 4})
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})
}

func TestProformaService_Transform(t *testing.T) {
	f := newProformaFixture(t, &entity.Proforma{
		ID: 5, Number: "PF000001", RequestID: 2, SupplierID: 20,
		Status: entity.ProformaStatusAccepted,
	})

	proforma, order, err := f.service.Transform(context.Background(), 5, entity.Actor{ID: 4})
	require.NoError(t, err)
	assert.Equal(t, entity.ProformaStatusTransformed, proforma.Status)

	require.NotNil(t, order)
	assert.Equal(t, entity.OrderStatusDraft, order.Status)
	assert.Equal(t, int64(20), order.SupplierID)
	require.NotNil(t, order.ProformaID)
	assert.Equal(t, int64(5), *order.ProformaID)
	require.NotNil(t, order.RequestID)
	assert.Equal(t, int64(2), *order.RequestID)

	require.Len(t, order.Lines, 1)
	assert.Equal(t, "ART-A", order.Lines[0].ArticleCode)
	assert.True(t, order.TotalHT.Equal(decimal.NewFromInt(1000)))
	assert.True(t, order.TotalTVA.Equal(decimal.NewFromInt(180)))
	assert.True(t, order.TotalTTC.Equal(decimal.NewFromInt(1180)))
}

func TestProformaService_TransformDraftRefused(t *testing.T) {
	f := newProformaFixture(t, &entity.Proforma{ID: 5, RequestID: 2, Status: entity.ProformaStatusDraft})

	_, _, err := f.service.Transform(context.Background(), 5, entity.Actor{ID: 4})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Nil(t, f.order, "no order created on a refused transform")
}
