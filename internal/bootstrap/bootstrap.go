package bootstrap

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/hydrashare/backend/internal/app/controllers"
	appRoutes "github.com/hydrashare/backend/internal/app/routes"
	appServices "github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/config"
	"github.com/hydrashare/backend/internal/db"
	appMiddleware "github.com/hydrashare/backend/internal/middleware"
	pkgAuth "github.com/hydrashare/backend/internal/pkg/auth"
	"github.com/hydrashare/backend/internal/pkg/events"
	"github.com/hydrashare/backend/internal/pkg/logger"
	"github.com/hydrashare/backend/internal/pkg/websocket"
	"github.com/hydrashare/backend/internal/store"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	UserService        appServices.UserService
	LedgerService      appServices.LedgerService
	ResourceService    appServices.ResourceService
	ExchangeService    appServices.ExchangeService
	AuthController     *appControllers.AuthController
	UserController     *appControllers.UserController
	ResourceController *appControllers.ResourceController
	RequestController  *appControllers.RequestController
	WSHub              *websocket.Hub
	WSHandler          *websocket.Handler
	AuthMiddleware     *appMiddleware.AuthMiddleware
	JWTService         *pkgAuth.JWTService
	BadgeBus           *events.BadgeBus
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore builds the configured document store. The returned database is
// nil for the memory backend.
func SetupStore(cfg *config.Config, lgr zerolog.Logger) (store.Store, *db.PostgresDB, error) {
	if cfg.Store.Backend == "memory" {
		lgr.Info().Msg("Using in-memory document store")
		return store.NewMemoryStore(), nil, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}

	docStore, err := store.NewPostgresStore(database, cfg.Store.NotifyChannel)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize document store")
		database.Close()
		return nil, nil, err
	}
	lgr.Info().Str("channel", cfg.Store.NotifyChannel).Msg("Document store ready")
	return docStore, database, nil
}

// BuildDependencies initializes services, controllers and middleware.
func BuildDependencies(cfg *config.Config, docStore store.Store, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	accessExp, err := time.ParseDuration(cfg.JWT.AccessTokenExpiration)
	if err != nil {
		return nil, err
	}
	refreshExp, err := time.ParseDuration(cfg.JWT.RefreshTokenExpiration)
	if err != nil {
		return nil, err
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  accessExp,
		RefreshTokenExp: refreshExp,
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.BadgeBus = events.NewBadgeBus()

	deps.WSHub = websocket.NewHub(lgr)
	go deps.WSHub.Run()

	// Badge bus subscribers register before the first award can commit
	deps.BadgeBus.Subscribe(func(event events.BadgeUnlocked) {
		deps.WSHub.BroadcastToUser(&websocket.Event{
			Type:   websocket.EventBadge,
			UserID: event.UserID,
			Payload: map[string]interface{}{
				"badge":  event.Badge,
				"points": event.Points,
			},
		})
	})

	deps.LedgerService = appServices.NewLedgerService(docStore, deps.BadgeBus, lgr)
	deps.UserService = appServices.NewUserService(docStore, deps.JWTService, lgr)
	deps.ResourceService = appServices.NewResourceService(docStore, deps.LedgerService, lgr)
	deps.ExchangeService = appServices.NewExchangeService(docStore, deps.WSHub, lgr)

	deps.WSHandler = websocket.NewHandler(deps.WSHub, deps.ExchangeService.EnsureParticipant, lgr)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.UserService, lgr)
	deps.UserController = appControllers.NewUserController(deps.UserService, lgr)
	deps.ResourceController = appControllers.NewResourceController(deps.ResourceService, deps.UserService, lgr)
	deps.RequestController = appControllers.NewRequestController(deps.ExchangeService, lgr)

	return deps, nil
}

// SetupRouter builds the gin engine and registers all routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(lgr))

	appRoutes.SetupRouter(
		router,
		deps.AuthController,
		deps.UserController,
		deps.ResourceController,
		deps.RequestController,
		deps.WSHandler,
		deps.AuthMiddleware,
	)
	return router
}

// requestLogger logs each request through the structured logger
func requestLogger(lgr zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		lgr.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
