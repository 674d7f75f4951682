package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ManishBastola/bank-app/internal/adapters/ledgerhttp"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/core/services"
	"github.com/ManishBastola/bank-app/internal/events"
	"github.com/ManishBastola/bank-app/internal/handlers"
	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/internal/platform/config"
	"github.com/ManishBastola/bank-app/internal/repositories/database/pgsql"
	"github.com/ManishBastola/bank-app/internal/repositories/memory"
	"github.com/ManishBastola/bank-app/pkg/authtoken"
	"github.com/ManishBastola/bank-app/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	codec := newTokenCodec(cfg)

	publisher := buildPublisher(cfg, logger)

	svcContainer := buildServices(cfg, logger, codec, repos, publisher)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendBaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, codec, svcContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newTokenCodec builds the token codec from the active signing key plus any
// still-accepted previous keys.
func newTokenCodec(cfg *config.Config) *authtoken.Codec {
	previous := make([][]byte, 0, len(cfg.JWTPreviousSecrets))
	for _, s := range cfg.JWTPreviousSecrets {
		previous = append(previous, []byte(s))
	}
	return authtoken.NewCodec(cfg.JWTIssuer, []byte(cfg.JWTSecret), previous...)
}

// buildRepositories connects to PostgreSQL and runs migrations when PGSQL_URL
// is configured; otherwise it falls back to the in-memory stores.
func buildRepositories(cfg *config.Config, logger *slog.Logger) (*portsrepo.RepositoryContainer, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("PGSQL_URL not set, using in-memory storage")
		return memory.NewRepositoryContainer(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connection pool established")

	if err := runMigrations(cfg, logger); err != nil {
		dbPool.Close()
		return nil, nil, err
	}

	return pgsql.NewRepositoryContainer(dbPool), dbPool.Close, nil
}

// runMigrations applies pending schema migrations over a short-lived
// database/sql connection, separate from the application pool.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil {
		return sourceErr
	} else if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Database migrations applied")
	}
	return nil
}

// buildPublisher connects the movement event stream when REDIS_URL is set.
// A nil publisher is valid and drops events.
func buildPublisher(cfg *config.Config, logger *slog.Logger) *events.Publisher {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, movement events disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Invalid REDIS_URL, movement events disabled", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)
	return events.NewPublisher(client, logger)
}

// buildServices wires the service layer. The ledger facade is the in-process
// service unless LEDGER_SERVICE_URL points the movement coordinator at a
// remote ledger deployment.
func buildServices(
	cfg *config.Config,
	logger *slog.Logger,
	codec *authtoken.Codec,
	repos *portsrepo.RepositoryContainer,
	publisher *events.Publisher,
) *portssvc.ServiceContainer {
	userService := services.NewUserService(repos.User)
	accountService := services.NewAccountService(repos.Ledger)
	localLedger := services.NewLedgerService(repos.Ledger)

	var ledgerFacade portssvc.LedgerSvcFacade = localLedger
	if cfg.LedgerServiceURL != "" {
		// Service-to-service token for the remote ledger surface.
		serviceToken, err := codec.Issue("movement-coordinator", 0, "EMPLOYEE", cfg.JWTExpiryDuration)
		if err != nil {
			logger.Error("Failed to issue service token, using in-process ledger", slog.String("error", err.Error()))
		} else {
			ledgerFacade = ledgerhttp.NewClient(cfg.LedgerServiceURL, cfg.LedgerCallTimeout, serviceToken)
			logger.Info("Using remote ledger", slog.String("url", cfg.LedgerServiceURL))
		}
	}

	movementService := services.NewMovementService(ledgerFacade, repos.Movement, publisher, services.MovementConfig{
		CallTimeout:    cfg.LedgerCallTimeout,
		LedgerAttempts: cfg.LedgerRetryAttempts,
		RecordAttempts: cfg.RecordWriteAttempts,
	})

	return &portssvc.ServiceContainer{
		User:     userService,
		Account:  accountService,
		Ledger:   ledgerFacade,
		Movement: movementService,
	}
}
