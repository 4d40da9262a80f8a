// Package http provides the HTTP adapter for the application layer.
// It is a thin layer that translates requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oumarfall/procureflow/internal/application/service"
	"github.com/oumarfall/procureflow/internal/report"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the server exposes
type Services struct {
	Requests  service.PurchaseRequestService
	Proformas service.ProformaService
	Orders    service.PurchaseOrderService
	Receipts  service.GoodsReceiptService
	Invoices  service.SupplierInvoiceService
	Payments  service.PaymentService
	Exporter  *report.Exporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		requests := api.Group("/requests")
		{
			requests.POST("", handlers.CreateRequest)
			requests.GET("/:id", handlers.GetRequest)
			requests.GET("/:id/history", handlers.RequestHistory)
			requests.POST("/:id/submit", handlers.SubmitRequest)
			requests.POST("/:id/approve", handlers.ApproveRequest)
			requests.POST("/:id/reject", handlers.RejectRequest)
			requests.POST("/:id/finance-decision", handlers.FinanceDecision)
			requests.POST("/:id/cancel", handlers.CancelRequest)
		}

		proformas := api.Group("/proformas")
		{
			proformas.POST("", handlers.CreateProforma)
			proformas.GET("/:id", handlers.GetProforma)
			proformas.POST("/:id/accept", handlers.AcceptProforma)
			proformas.POST("/:id/reject", handlers.RejectProforma)
			proformas.POST("/:id/transform", handlers.TransformProforma)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", handlers.CreateOrder)
			orders.GET("/:id", handlers.GetOrder)
			orders.POST("/:id/submit", handlers.SubmitOrder)
			orders.POST("/:id/validate", handlers.ValidateOrder)
			orders.POST("/:id/approve", handlers.ApproveOrder)
			orders.POST("/:id/send", handlers.SendOrder)
			orders.POST("/:id/cancel", handlers.CancelOrder)
		}

		receipts := api.Group("/receipts")
		{
			receipts.POST("", handlers.CreateReceipt)
			receipts.GET("/:id", handlers.GetReceipt)
			receipts.PUT("/:id/lines", handlers.UpdateReceiptLine)
			receipts.POST("/:id/finalize", handlers.FinalizeReceipt)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", handlers.CreateInvoice)
			invoices.GET("/:id", handlers.GetInvoice)
			invoices.POST("/:id/rematch", handlers.RematchInvoice)
			invoices.POST("/:id/validate", handlers.ValidateInvoice)
			invoices.POST("/:id/unblock", handlers.UnblockInvoice)
			invoices.POST("/:id/report", handlers.ExportDiscrepancyReport)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", handlers.CreatePayment)
			payments.GET("/:id", handlers.GetPayment)
			payments.POST("/:id/execute", handlers.ExecutePayment)
			payments.POST("/:id/cancel", handlers.CancelPayment)
			payments.POST("/:id/voucher", handlers.ExportPaymentVoucher)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
