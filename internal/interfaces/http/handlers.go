package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/application/service"
	"github.com/oumarfall/procureflow/internal/domain/approval"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

const (
	actorIDHeader   = "X-Actor-ID"
	actorNameHeader = "X-Actor-Name"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{services: services, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LineRequest is one document line in creation payloads
type LineRequest struct {
	ArticleCode string `json:"article_code" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

// CreateRequestRequest is the payload for creating a purchase request
type CreateRequestRequest struct {
	Lines []LineRequest `json:"lines" binding:"required,min=1"`
}

// DecisionRequest is the payload for approval decisions
type DecisionRequest struct {
	Level   int    `json:"level"`
	Comment string `json:"comment"`
}

// FinanceDecisionRequest is the payload for the finance funds check
type FinanceDecisionRequest struct {
	FundsAvailable bool   `json:"funds_available"`
	Comment        string `json:"comment"`
}

// CreateProformaRequest is the payload for registering a proforma
type CreateProformaRequest struct {
	RequestID  int64 `json:"request_id" binding:"required"`
	SupplierID int64 `json:"supplier_id" binding:"required"`
}

// CreateOrderRequest is the payload for a direct purchase order
type CreateOrderRequest struct {
	RequestID  int64         `json:"request_id" binding:"required"`
	SupplierID int64         `json:"supplier_id" binding:"required"`
	Lines      []LineRequest `json:"lines" binding:"required,min=1"`
	TVARate    string        `json:"tva_rate"`
}

// ValidateOrderRequest is the payload for the order validation step
type ValidateOrderRequest struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

// CreateReceiptRequest is the payload for opening a goods receipt
type CreateReceiptRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
	DepotID int64 `json:"depot_id" binding:"required"`
}

// UpdateReceiptLineRequest is the payload for recording control counts
type UpdateReceiptLineRequest struct {
	LineID           int64  `json:"line_id" binding:"required"`
	ReceivedQty      string `json:"received_qty" binding:"required"`
	ConformingQty    string `json:"conforming_qty" binding:"required"`
	NonConformingQty string `json:"non_conforming_qty"`
	Reason           string `json:"reason"`
}

// CreateInvoiceRequest is the payload for registering a supplier invoice
type CreateInvoiceRequest struct {
	SupplierID int64         `json:"supplier_id" binding:"required"`
	OrderID    *int64        `json:"order_id"`
	TotalTTC   string        `json:"total_ttc" binding:"required"`
	Lines      []LineRequest `json:"lines"`
}

// UnblockInvoiceRequest is the payload for the manual override
type UnblockInvoiceRequest struct {
	Justification string `json:"justification" binding:"required"`
}

// CreatePaymentRequest is the payload for scheduling a payment
type CreatePaymentRequest struct {
	InvoiceID int64  `json:"invoice_id" binding:"required"`
	Amount    string `json:"amount"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// actor extracts the acting user from request headers. Every mutating
// route requires X-Actor-ID; there is no session inference.
func (h *Handlers) actor(c *gin.Context) (entity.Actor, bool) {
	idStr := c.GetHeader(actorIDHeader)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing " + actorIDHeader + " header"})
		return entity.Actor{}, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid " + actorIDHeader + " header"})
		return entity.Actor{}, false
	}
	return entity.Actor{ID: id, Name: c.GetHeader(actorNameHeader)}, true
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	var conflict *approval.ConflictOfInterestError

	switch {
	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, port.ErrVersionConflict), errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.As(err, &conflict), errors.Is(err, approval.ErrThresholdViolation):
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
	}
}

func (h *Handlers) respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func parseLines(lines []LineRequest) ([]service.RequestLineInput, error) {
	out := make([]service.RequestLineInput, 0, len(lines))
	for _, l := range lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return nil, err
		}
		out = append(out, service.RequestLineInput{ArticleCode: l.ArticleCode, Quantity: qty, UnitPrice: price})
	}
	return out, nil
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	lines, err := parseLines(req.Lines)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	request, err := h.services.Requests.Create(c.Request.Context(), actor, service.CreateRequestInput{Lines: lines})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, request)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	request, err := h.services.Requests.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, request)
}

// RequestHistory handles GET /api/requests/:id/history
func (h *Handlers) RequestHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	records, err := h.services.Requests.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, records)
}

// SubmitRequest handles POST /api/requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	h.requestAction(c, func(id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
		return h.services.Requests.Submit(c.Request.Context(), id, actor)
	})
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	h.requestAction(c, func(id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
		return h.services.Requests.Approve(c.Request.Context(), id, actor, req.Level, req.Comment)
	})
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	h.requestAction(c, func(id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
		return h.services.Requests.Reject(c.Request.Context(), id, actor, req.Level, req.Comment)
	})
}

// FinanceDecision handles POST /api/requests/:id/finance-decision
func (h *Handlers) FinanceDecision(c *gin.Context) {
	var req FinanceDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	h.requestAction(c, func(id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
		return h.services.Requests.FinanceDecision(c.Request.Context(), id, actor, req.FundsAvailable, req.Comment)
	})
}

// CancelRequest handles POST /api/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	h.requestAction(c, func(id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
		return h.services.Requests.Cancel(c.Request.Context(), id, actor)
	})
}

func (h *Handlers) requestAction(c *gin.Context, fn func(int64, entity.Actor) (*entity.PurchaseRequest, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	request, err := fn(id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, request)
}

// CreateProforma handles POST /api/proformas
func (h *Handlers) CreateProforma(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateProformaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	proforma, err := h.services.Proformas.CreateFromRequest(c.Request.Context(), actor, req.RequestID, req.SupplierID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, proforma)
}

// GetProforma handles GET /api/proformas/:id
func (h *Handlers) GetProforma(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	proforma, err := h.services.Proformas.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, proforma)
}

// AcceptProforma handles POST /api/proformas/:id/accept
func (h *Handlers) AcceptProforma(c *gin.Context) {
	h.proformaAction(c, h.services.Proformas.Accept)
}

// RejectProforma handles POST /api/proformas/:id/reject
func (h *Handlers) RejectProforma(c *gin.Context) {
	h.proformaAction(c, h.services.Proformas.Reject)
}

// TransformProforma handles POST /api/proformas/:id/transform
func (h *Handlers) TransformProforma(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	proforma, order, err := h.services.Proformas.Transform(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"proforma": proforma, "order": order})
}

func (h *Handlers) proformaAction(c *gin.Context, fn func(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	proforma, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, proforma)
}

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	lines := make([]service.OrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		lines = append(lines, service.OrderLineInput{ArticleCode: l.ArticleCode, Quantity: qty, UnitPrice: price})
	}
	tvaRate := decimal.Zero
	if req.TVARate != "" {
		var err error
		if tvaRate, err = decimal.NewFromString(req.TVARate); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
	}
	order, err := h.services.Orders.CreateFromRequest(c.Request.Context(), actor, service.CreateOrderInput{
		RequestID:  req.RequestID,
		SupplierID: req.SupplierID,
		Lines:      lines,
		TVARate:    tvaRate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	order, err := h.services.Orders.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

// SubmitOrder handles POST /api/orders/:id/submit
func (h *Handlers) SubmitOrder(c *gin.Context) {
	h.orderAction(c, h.services.Orders.Submit)
}

// ValidateOrder handles POST /api/orders/:id/validate
func (h *Handlers) ValidateOrder(c *gin.Context) {
	var req ValidateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	order, err := h.services.Orders.Validate(c.Request.Context(), id, actor, req.Approve, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

// ApproveOrder handles POST /api/orders/:id/approve
func (h *Handlers) ApproveOrder(c *gin.Context) {
	h.orderAction(c, h.services.Orders.ApproveFinal)
}

// SendOrder handles POST /api/orders/:id/send
func (h *Handlers) SendOrder(c *gin.Context) {
	h.orderAction(c, h.services.Orders.Send)
}

// CancelOrder handles POST /api/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	h.orderAction(c, h.services.Orders.Cancel)
}

func (h *Handlers) orderAction(c *gin.Context, fn func(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

// CreateReceipt handles POST /api/receipts
func (h *Handlers) CreateReceipt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	receipt, err := h.services.Receipts.CreateFromOrder(c.Request.Context(), actor, req.OrderID, req.DepotID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, receipt)
}

// GetReceipt handles GET /api/receipts/:id
func (h *Handlers) GetReceipt(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	receipt, err := h.services.Receipts.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, receipt)
}

// UpdateReceiptLine handles PUT /api/receipts/:id/lines
func (h *Handlers) UpdateReceiptLine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UpdateReceiptLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	received, err := decimal.NewFromString(req.ReceivedQty)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	conforming, err := decimal.NewFromString(req.ConformingQty)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	nonConforming := decimal.Zero
	if req.NonConformingQty != "" {
		if nonConforming, err = decimal.NewFromString(req.NonConformingQty); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
	}
	receipt, err := h.services.Receipts.UpdateLine(c.Request.Context(), id, actor, service.ReceiptLineUpdate{
		LineID:           req.LineID,
		ReceivedQty:      received,
		ConformingQty:    conforming,
		NonConformingQty: nonConforming,
		Reason:           req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, receipt)
}

// FinalizeReceipt handles POST /api/receipts/:id/finalize
func (h *Handlers) FinalizeReceipt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	receipt, err := h.services.Receipts.Finalize(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, receipt)
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	totalTTC, err := decimal.NewFromString(req.TotalTTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	lines := make([]service.InvoiceLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		lines = append(lines, service.InvoiceLineInput{ArticleCode: l.ArticleCode, Quantity: qty, UnitPrice: price})
	}
	invoice, err := h.services.Invoices.Create(c.Request.Context(), actor, service.CreateInvoiceInput{
		SupplierID: req.SupplierID,
		OrderID:    req.OrderID,
		TotalTTC:   totalTTC,
		Lines:      lines,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, invoice)
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	invoice, err := h.services.Invoices.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, invoice)
}

// RematchInvoice handles POST /api/invoices/:id/rematch
func (h *Handlers) RematchInvoice(c *gin.Context) {
	h.invoiceAction(c, h.services.Invoices.RerunMatch)
}

// ValidateInvoice handles POST /api/invoices/:id/validate
func (h *Handlers) ValidateInvoice(c *gin.Context) {
	h.invoiceAction(c, h.services.Invoices.Validate)
}

// UnblockInvoice handles POST /api/invoices/:id/unblock
func (h *Handlers) UnblockInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UnblockInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	invoice, err := h.services.Invoices.Unblock(c.Request.Context(), id, actor, req.Justification)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, invoice)
}

func (h *Handlers) invoiceAction(c *gin.Context, fn func(ctx context.Context, id int64, actor entity.Actor) (*entity.SupplierInvoice, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	invoice, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, invoice)
}

// CreatePayment handles POST /api/payments
func (h *Handlers) CreatePayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	amount := decimal.Zero
	if req.Amount != "" {
		var err error
		if amount, err = decimal.NewFromString(req.Amount); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
	}
	payment, err := h.services.Payments.CreateForInvoice(c.Request.Context(), actor, req.InvoiceID, amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, payment)
}

// GetPayment handles GET /api/payments/:id
func (h *Handlers) GetPayment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	payment, err := h.services.Payments.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, payment)
}

// ExecutePayment handles POST /api/payments/:id/execute
func (h *Handlers) ExecutePayment(c *gin.Context) {
	h.paymentAction(c, h.services.Payments.Execute)
}

// CancelPayment handles POST /api/payments/:id/cancel
func (h *Handlers) CancelPayment(c *gin.Context) {
	h.paymentAction(c, h.services.Payments.Cancel)
}

// ExportDiscrepancyReport handles POST /api/invoices/:id/report
func (h *Handlers) ExportDiscrepancyReport(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	invoice, err := h.services.Invoices.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	path, err := h.services.Exporter.DiscrepancyReport(invoice)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"path": path})
}

// ExportPaymentVoucher handles POST /api/payments/:id/voucher
func (h *Handlers) ExportPaymentVoucher(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	payment, err := h.services.Payments.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	invoice, err := h.services.Invoices.Get(c.Request.Context(), payment.InvoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	path, err := h.services.Exporter.PaymentVoucher(payment, invoice)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"path": path})
}

func (h *Handlers) paymentAction(c *gin.Context, fn func(ctx context.Context, id int64, actor entity.Actor) (*entity.Payment, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	payment, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, payment)
}
