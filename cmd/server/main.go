package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/service"
	"github.com/oumarfall/procureflow/internal/config"
	"github.com/oumarfall/procureflow/internal/infrastructure/audit"
	"github.com/oumarfall/procureflow/internal/infrastructure/ledger"
	"github.com/oumarfall/procureflow/internal/infrastructure/persistence/repository"
	httpserver "github.com/oumarfall/procureflow/internal/interfaces/http"
	"github.com/oumarfall/procureflow/internal/report"
	"github.com/oumarfall/procureflow/pkg/database"
	"github.com/oumarfall/procureflow/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement approval engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Report.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create report output directory", zap.Error(err))
	}

	// Threshold tables
	requestThresholds, err := cfg.RequestThresholds()
	if err != nil {
		logger.Fatal("Invalid request thresholds", zap.Error(err))
	}
	orderThresholds, err := cfg.OrderThresholds()
	if err != nil {
		logger.Fatal("Invalid order thresholds", zap.Error(err))
	}

	// Initialize repositories
	requestRepo := repository.NewPurchaseRequestRepository(db.DB, logger)
	recordRepo := repository.NewApprovalRecordRepository(db.DB, logger)
	proformaRepo := repository.NewProformaRepository(db.DB, logger)
	orderRepo := repository.NewPurchaseOrderRepository(db.DB, logger)
	receiptRepo := repository.NewGoodsReceiptRepository(db.DB, logger)
	invoiceRepo := repository.NewSupplierInvoiceRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)
	sequenceRepo := repository.NewSequenceRepository(db.DB, logger)

	// Infrastructure collaborators
	auditLogger := audit.NewSQLiteAuditLogger(db.DB, logger)
	stockLedger := ledger.NewSQLiteStockLedger(db.DB, logger)

	// Application services
	svcLogger := utils.NewZapAdapter(logger)
	numbering := service.NewNumbering(sequenceRepo, nil)

	requestService := service.NewPurchaseRequestService(
		requestRepo, recordRepo, db, numbering, requestThresholds, auditLogger, svcLogger)
	proformaService := service.NewProformaService(
		proformaRepo, requestRepo, orderRepo, db, numbering, cfg.TVA(), auditLogger, svcLogger)
	orderService := service.NewPurchaseOrderService(
		orderRepo, requestRepo, db, numbering, orderThresholds, auditLogger, svcLogger)
	receiptService := service.NewGoodsReceiptService(
		receiptRepo, orderRepo, db, numbering, stockLedger, auditLogger, svcLogger)
	invoiceService := service.NewSupplierInvoiceService(
		invoiceRepo, orderRepo, receiptRepo, db, numbering, auditLogger, svcLogger)
	paymentService := service.NewPaymentService(
		paymentRepo, invoiceRepo, db, numbering, auditLogger, svcLogger)

	exporter := report.NewExporter(cfg.Report.OutputDir, cfg.Report.CompanyName, logger)

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpserver.Services{
		Requests:  requestService,
		Proformas: proformaService,
		Orders:    orderService,
		Receipts:  receiptService,
		Invoices:  invoiceService,
		Payments:  paymentService,
		Exporter:  exporter,
	}, svcLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
