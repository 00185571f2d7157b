package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/clinicdesk/helpdesk/internal/api/http"
	"github.com/clinicdesk/helpdesk/internal/api/http/handlers"
	"github.com/clinicdesk/helpdesk/internal/auth"
	"github.com/clinicdesk/helpdesk/internal/config"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/events"
	"github.com/clinicdesk/helpdesk/internal/observability"
	"github.com/clinicdesk/helpdesk/internal/persistence"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/internal/service"
	"github.com/clinicdesk/helpdesk/internal/sla"
	"github.com/clinicdesk/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calendar, err := cfg.SLA.Calendar()
	if err != nil {
		logger.Fatal("invalid business calendar", zap.Error(err))
	}
	policy, err := cfg.SLA.Policy()
	if err != nil {
		logger.Fatal("invalid sla policy", zap.Error(err))
	}
	engine := sla.NewEngine(calendar, policy, domain.RoleTech)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	clinicUnitRepo := repository.NewClinicUnitRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	stockRepo := repository.NewStockRepository(pool)
	hardwareRepo := repository.NewHardwareRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		AttachmentRepo: attachmentRepo,
		CategoryRepo:   categoryRepo,
		ClinicUnitRepo: clinicUnitRepo,
		UserRepo:       userRepo,
		AuditRepo:      auditRepo,
		Engine:         engine,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	authService := service.NewAuthService(userRepo, tokenManager, cfg.Auth.BcryptCost)
	adminService := service.NewAdminService(clinicUnitRepo, categoryRepo, userRepo)
	reportService := service.NewReportService(reportRepo, ticketRepo, rdb.Client,
		cfg.Reports.CacheTTL(), cfg.Reports.ExportLimit, logger)
	inventoryService := service.NewInventoryService(stockRepo, hardwareRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)

	worker.StartNotificationWorker(notificationService)

	monitor := worker.NewSLAMonitor(ticketRepo, auditRepo, engine, dispatcher, metrics, logger, cfg.SLA.SweepCronSpec)
	if err := monitor.Start(); err != nil {
		logger.Fatal("failed to start sla monitor", zap.Error(err))
	}
	defer monitor.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		TechTickets:    handlers.NewTechTicketsHandler(ticketService),
		Admin:          handlers.NewAdminHandler(adminService),
		Reports:        handlers.NewReportsHandler(reportService),
		Inventory:      handlers.NewInventoryHandler(inventoryService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
