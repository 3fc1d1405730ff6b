// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	router "clicker-ledger/internal/api"
	"clicker-ledger/internal/api/handler"
	"clicker-ledger/internal/bot"
	"clicker-ledger/internal/config"
	"clicker-ledger/internal/metrics"
	"clicker-ledger/internal/repository"
	"clicker-ledger/internal/repository/memory"
	"clicker-ledger/internal/repository/postgres"
	"clicker-ledger/internal/service"
	"clicker-ledger/internal/util"
	"clicker-ledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB // nil with the memory store

	// Repositories
	AccountRepository repository.AccountRepository

	// Services
	LedgerService service.LedgerService

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Front-ends
	HTTPHandler http.Handler
	Bot         *bot.Bot // nil when no bot token is configured
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage", cfg.StorageDriver)

	// 3. Initialize Repositories
	if err := app.initRepository(ctx); err != nil {
		return err
	}

	// 4. Initialize Metrics
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.New(app.Registry)
	count, err := app.AccountRepository.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	app.Metrics.Accounts.Set(float64(count))

	// 5. Initialize Services
	app.LedgerService = service.NewLedgerService(app.AccountRepository, app.Metrics, app.Logger)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.Registry, cfg.AllowedOrigins, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	// 7. Initialize Chat Bot
	if cfg.Bot.Enabled() {
		commander := bot.NewCommander(app.LedgerService, cfg.Bot.FrontendURL, app.Logger)
		app.Bot, err = bot.NewBot(cfg.Bot.Token, commander, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize bot: %w", err)
		}
		app.Logger.Info("Chat bot initialized.", "frontend_url", cfg.Bot.FrontendURL)
	} else {
		app.Logger.Info("BOT_TOKEN not set, chat bot disabled.")
	}

	return nil
}

func (app *Application) initRepository(ctx context.Context) error {
	if app.Config.StorageDriver != config.StoragePostgres {
		app.AccountRepository = memory.NewAccountRepository()
		app.Logger.Info("In-memory ledger initialized.")
		return nil
	}

	database, err := db.NewPostgresDB(ctx, app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	repo := postgres.NewAccountRepository(app.DB)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	app.AccountRepository = repo
	app.Logger.Info("Postgres ledger initialized.")
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
