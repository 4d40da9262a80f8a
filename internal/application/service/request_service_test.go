package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oumarfall/procureflow/internal/domain/approval"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

type requestFixture struct {
	service  PurchaseRequestService
	requests *mockRequestRepo
	records  []*entity.ApprovalRecord
	audit    *mockAudit
	stored   *entity.PurchaseRequest
}

func newRequestFixture(t *testing.T, stored *entity.PurchaseRequest) *requestFixture {
	t.Helper()
	f := &requestFixture{audit: &mockAudit{}, stored: stored}
	f.requests = &mockRequestRepo{
		CreateFn: func(ctx context.Context, request *entity.PurchaseRequest) error {
			request.ID = 1
			f.stored = request
			return nil
		},
		GetByIDFn: func(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
			return f.stored, nil
		},
		UpdateFn: func(ctx context.Context, request *entity.PurchaseRequest) error {
			f.stored = request
			return nil
		},
	}
	recordRepo := &mockRecordRepo{
		CreateFn: func(ctx context.Context, record *entity.ApprovalRecord) error {
			f.records = append(f.records, record)
			return nil
		},
		ListByRequestFn: func(ctx context.Context, requestID int64) ([]*entity.ApprovalRecord, error) {
			return f.records, nil
		},
	}
	f.service = NewPurchaseRequestService(
		f.requests, recordRepo, &mockTxManager{}, testNumbering(), nil, f.audit, nopLogger{})
	return f
}

func submittedRequest(amount string, requesterID int64) *entity.PurchaseRequest {
	return &entity.PurchaseRequest{
		ID:          1,
		Number:      "DA-20240315-0001",
		RequesterID: requesterID,
		Amount:      decimal.RequireFromString(amount),
		Status:      entity.RequestStatusSubmitted,
		Version:     1,
	}
}

func TestRequestService_Create(t *testing.T) {
	f := newRequestFixture(t, nil)

	request, err := f.service.Create(context.Background(), entity.Actor{ID: 7, Name: "Awa"}, CreateRequestInput{
		Lines: []RequestLineInput{
			{ArticleCode: "ART-A", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(100)},
			{ArticleCode: "ART-B", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("49.50")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusDraft, request.Status)
	assert.Equal(t, int64(7), request.RequesterID)
	assert.True(t, request.Amount.Equal(decimal.NewFromInt(399)), "amount computed from lines, got %s", request.Amount)
	assert.NotEmpty(t, request.Number)

	require.Len(t, f.audit.Entries, 1)
	assert.Equal(t, "CREATE", f.audit.Entries[0].Action)
}

func TestRequestService_CreateRejectsBadLines(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateRequestInput
		wantErr string
	}{
		{
			name:    "no lines",
			input:   CreateRequestInput{},
			wantErr: "at least one line",
		},
		{
			name: "missing article code",
			input: CreateRequestInput{Lines: []RequestLineInput{
				{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
			}},
			wantErr: "article code is required",
		},
		{
			name: "zero quantity",
			input: CreateRequestInput{Lines: []RequestLineInput{
				{ArticleCode: "ART-A", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(10)},
			}},
			wantErr: "quantity must be positive",
		},
		{
			name: "negative unit price",
			input: CreateRequestInput{Lines: []RequestLineInput{
				{ArticleCode: "ART-A", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-5)},
			}},
			wantErr: "unit price must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture(t, nil)
			_, err := f.service.Create(context.Background(), entity.Actor{ID: 7}, tt.input)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRequestService_Submit(t *testing.T) {
	f := newRequestFixture(t, &entity.PurchaseRequest{
		ID: 1, RequesterID: 7, Status: entity.RequestStatusDraft,
		Amount: decimal.NewFromInt(500),
	})

	request, err := f.service.Submit(context.Background(), 1, entity.Actor{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusSubmitted, request.Status)
}

func TestRequestService_SubmitRefusedFromTerminal(t *testing.T) {
	f := newRequestFixture(t, &entity.PurchaseRequest{
		ID: 1, RequesterID: 7, Status: entity.RequestStatusRejected,
	})

	_, err := f.service.Submit(context.Background(), 1, entity.Actor{ID: 7})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestRequestService_ApproveAtRequiredLevelMovesToFinance(t *testing.T) {
	// 60_000 requires level 2
	f := newRequestFixture(t, submittedRequest("60000", 7))

	request, err := f.service.Approve(context.Background(), 1, entity.Actor{ID: 9}, 2, "ok")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPendingFinance, request.Status)

	require.Len(t, f.records, 1)
	assert.Equal(t, 2, f.records[0].Level)
	assert.Equal(t, entity.DecisionApproved, f.records[0].Decision)
}

func TestRequestService_ApproveBelowRequiredLevelStaysSubmitted(t *testing.T) {
	// 60_000 requires level 2; a level-1 approval is an intermediate step
	f := newRequestFixture(t, submittedRequest("60000", 7))

	request, err := f.service.Approve(context.Background(), 1, entity.Actor{ID: 9}, 1, "first tier")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusSubmitted, request.Status)

	require.Len(t, f.records, 1, "intermediate approvals are still recorded")
	assert.Equal(t, 1, f.records[0].Level)
}

func TestRequestService_ApproveSmallAmountAtLevelZero(t *testing.T) {
	// Below every threshold no manager level is required
	f := newRequestFixture(t, submittedRequest("500", 7))

	request, err := f.service.Approve(context.Background(), 1, entity.Actor{ID: 9}, 0, "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPendingFinance, request.Status)

	require.Len(t, f.records, 1)
	assert.Equal(t, 0, f.records[0].Level)
}

func TestRequestService_ApproveOwnRequestRefused(t *testing.T) {
	f := newRequestFixture(t, submittedRequest("500", 7))

	_, err := f.service.Approve(context.Background(), 1, entity.Actor{ID: 7}, 0, "")
	var coi *approval.ConflictOfInterestError
	require.ErrorAs(t, err, &coi)
	assert.Equal(t, int64(7), coi.ActorID)
	assert.Empty(t, f.records, "a refused decision leaves no record")
	assert.Equal(t, entity.RequestStatusSubmitted, f.stored.Status)
}

func TestRequestService_ApproveLevelOutOfRange(t *testing.T) {
	f := newRequestFixture(t, submittedRequest("500", 7))

	_, err := f.service.Approve(context.Background(), 1, entity.Actor{ID: 9}, 4, "")
	assert.ErrorContains(t, err, "out of range")
}

func TestRequestService_Reject(t *testing.T) {
	f := newRequestFixture(t, submittedRequest("25000", 7))

	request, err := f.service.Reject(context.Background(), 1, entity.Actor{ID: 9}, 1, "not budgeted")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, request.Status)

	require.Len(t, f.records, 1)
	assert.Equal(t, entity.DecisionRejected, f.records[0].Decision)
	assert.Equal(t, "not budgeted", f.records[0].Comment)
}

func TestRequestService_RejectOwnRequestRefused(t *testing.T) {
	f := newRequestFixture(t, submittedRequest("25000", 7))

	_, err := f.service.Reject(context.Background(), 1, entity.Actor{ID: 7}, 1, "")
	var coi *approval.ConflictOfInterestError
	assert.ErrorAs(t, err, &coi)
}

func TestRequestService_FinanceDecision(t *testing.T) {
	tests := []struct {
		name         string
		funds        bool
		wantStatus   entity.RequestStatus
		wantDecision entity.ApprovalDecision
	}{
		{"funds available", true, entity.RequestStatusApproved, entity.DecisionFundsOK},
		{"funds insufficient", false, entity.RequestStatusRejected, entity.DecisionFundsInsufficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := submittedRequest("500", 7)
			stored.Status = entity.RequestStatusPendingFinance
			f := newRequestFixture(t, stored)

			request, err := f.service.FinanceDecision(context.Background(), 1, entity.Actor{ID: 11}, tt.funds, "checked")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, request.Status)

			require.Len(t, f.records, 1)
			assert.Equal(t, entity.LevelFinance, f.records[0].Level)
			assert.Equal(t, tt.wantDecision, f.records[0].Decision)
		})
	}
}

func TestRequestService_FinanceDecisionBeforeApprovalRefused(t *testing.T) {
	f := newRequestFixture(t, submittedRequest("500", 7))

	_, err := f.service.FinanceDecision(context.Background(), 1, entity.Actor{ID: 11}, true, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestRequestService_Cancel(t *testing.T) {
	for _, from := range []entity.RequestStatus{
		entity.RequestStatusDraft,
		entity.RequestStatusSubmitted,
		entity.RequestStatusPendingFinance,
		entity.RequestStatusApproved,
	} {
		t.Run(string(from), func(t *testing.T) {
			stored := submittedRequest("500", 7)
			stored.Status = from
			f := newRequestFixture(t, stored)

			request, err := f.service.Cancel(context.Background(), 1, entity.Actor{ID: 7})
			require.NoError(t, err)
			assert.Equal(t, entity.RequestStatusCancelled, request.Status)
		})
	}
}

func TestRequestService_CancelFromTerminalRefused(t *testing.T) {
	stored := submittedRequest("500", 7)
	stored.Status = entity.RequestStatusRejected
	f := newRequestFixture(t, stored)

	_, err := f.service.Cancel(context.Background(), 1, entity.Actor{ID: 7})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestRequestService_History(t *testing.T) {
	f := newRequestFixture(t, submittedRequest("60000", 7))

	_, err := f.service.Approve(context.Background(), 1, entity.Actor{ID: 9}, 1, "tier one")
	require.NoError(t, err)
	_, err = f.service.Approve(context.Background(), 1, entity.Actor{ID: 10}, 2, "tier two")
	require.NoError(t, err)

	history, err := f.service.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Level)
	assert.Equal(t, 2, history[1].Level)
}
