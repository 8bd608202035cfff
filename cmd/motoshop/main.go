package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motoshop/internal/auth"
	"motoshop/internal/backup"
	"motoshop/internal/config"
	"motoshop/internal/db"
	"motoshop/internal/handlers"
	"motoshop/internal/maintenance"
	"motoshop/internal/metrics"
	"motoshop/internal/models"
	"motoshop/internal/notify"
	"motoshop/internal/security"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Open(cfg.DBPath, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := models.EnsureAdminExists(database, cfg.AdminUser, cfg.AdminEmail, cfg.AdminPass); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	// Lockout engine over the security event log
	engine := security.NewEngine(
		security.NewSQLStore(database),
		cfg.LockoutMaxAttempts,
		time.Duration(cfg.LockoutWindowHours)*time.Hour,
	)

	notifier := &notify.Notifier{
		Email:      notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword),
		Webhook:    notify.NewWebhookSender(cfg.WebhookURL, cfg.WebhookFormat),
		AdminEmail: cfg.AdminEmail,
	}

	backupMgr := backup.NewManager(cfg.BackupDir, cfg.BackupRetentionDays)

	// Background housekeeping
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := maintenance.NewSweeper(database, time.Hour, backupMgr, cfg.DBPath,
		cfg.ActivityRetentionDays, cfg.SecurityRetentionDays)
	go sweeper.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
	}

	// Rate limit on authentication endpoints
	loginLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})

	api := app.Group("/api")

	// Public routes
	api.Get("/status", handlers.Status(database))
	api.Post("/auth/login", loginLimiter, handlers.Login(database, engine, notifier, cfg))
	api.Post("/auth/totp", loginLimiter, handlers.LoginTOTP(database, cfg))

	// Authenticated routes
	protected := api.Group("/", auth.Middleware(database, cfg.JWTSecret))

	protected.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	protected.Post("/auth/logout", handlers.Logout(database))
	protected.Get("/auth/session", handlers.Session(database))
	protected.Post("/auth/password", handlers.ChangePassword(database))

	protected.Post("/auth/totp/setup", handlers.TOTPSetup(database, cfg))
	protected.Post("/auth/totp/confirm", handlers.TOTPConfirm(database))
	protected.Post("/auth/totp/disable", handlers.TOTPDisable(database))

	// Lockout status is admin-or-self; the handler enforces it
	protected.Get("/users/:id/lockout", handlers.LockoutStatus(database, engine))

	// Client CRUD
	protected.Get("/clients", handlers.ListClients(database))
	protected.Post("/clients", handlers.CreateClient(database))
	protected.Get("/clients/:ci", handlers.GetClient(database))
	protected.Put("/clients/:ci", handlers.UpdateClient(database))
	protected.Delete("/clients/:ci", handlers.DeleteClient(database))

	// Employee CRUD
	protected.Get("/employees", handlers.ListEmployees(database))
	protected.Post("/employees", handlers.CreateEmployee(database))
	protected.Get("/employees/:ci", handlers.GetEmployee(database))
	protected.Put("/employees/:ci", handlers.UpdateEmployee(database))
	protected.Delete("/employees/:ci", handlers.DeleteEmployee(database))

	// Vehicle CRUD
	protected.Get("/vehicles", handlers.ListVehicles(database))
	protected.Post("/vehicles", handlers.CreateVehicle(database))
	protected.Get("/vehicles/:plate", handlers.GetVehicle(database))
	protected.Put("/vehicles/:plate", handlers.UpdateVehicle(database))
	protected.Delete("/vehicles/:plate", handlers.DeleteVehicle(database))

	// Quote CRUD
	protected.Get("/quotes", handlers.ListQuotes(database))
	protected.Post("/quotes", handlers.CreateQuote(database))
	protected.Get("/quotes/:id", handlers.GetQuote(database))
	protected.Put("/quotes/:id", handlers.UpdateQuote(database))
	protected.Delete("/quotes/:id", handlers.DeleteQuote(database))

	// Work order CRUD
	protected.Get("/workorders", handlers.ListWorkOrders(database))
	protected.Post("/workorders", handlers.CreateWorkOrder(database))
	protected.Get("/workorders/:id", handlers.GetWorkOrder(database))
	protected.Put("/workorders/:id", handlers.UpdateWorkOrder(database))
	protected.Delete("/workorders/:id", handlers.DeleteWorkOrder(database))

	// Tool inventory CRUD
	protected.Get("/inventory", handlers.ListInventory(database))
	protected.Post("/inventory", handlers.CreateInventoryItem(database))
	protected.Get("/inventory/:id", handlers.GetInventoryItem(database))
	protected.Put("/inventory/:id", handlers.UpdateInventoryItem(database))
	protected.Delete("/inventory/:id", handlers.DeleteInventoryItem(database))

	// Admin surface
	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Get("/users", handlers.ListUsers(database))
	admin.Post("/users", handlers.CreateUser(database, notifier))
	admin.Put("/users/:id/role", handlers.UpdateUserRole(database))
	admin.Post("/users/:id/password", handlers.ResetUserPassword(database, notifier))
	admin.Delete("/users/:id", handlers.DeleteUser(database))

	admin.Post("/users/:id/unlock", handlers.UnlockUser(database, engine, notifier))
	admin.Get("/lockouts", handlers.ListLockedUsers(database, engine))
	admin.Get("/users/:id/lockout-history", handlers.LockoutHistory(database, engine))

	admin.Get("/activity", handlers.ListActivity(database))

	admin.Get("/backups", handlers.ListBackups(backupMgr))
	admin.Post("/backups", handlers.CreateBackup(database, backupMgr, cfg.DBPath))
	admin.Post("/backups/:name/restore", handlers.RestoreBackup(database, backupMgr, cfg.DBPath))
	admin.Delete("/backups/:name", handlers.DeleteBackup(database, backupMgr))

	if cfg.MetricsEnabled {
		admin.Get("/metrics", metrics.Handler())
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	log.Printf("MotoShop API starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
