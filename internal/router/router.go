package router

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/benj-n/regami/internal/handlers"
	"github.com/benj-n/regami/internal/middleware"
	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/repositories"
	"github.com/benj-n/regami/internal/services"
	"github.com/benj-n/regami/internal/ws"
	"github.com/benj-n/regami/pkg/apperrors"
	"github.com/benj-n/regami/pkg/config"
	"github.com/benj-n/regami/pkg/email"
	"github.com/benj-n/regami/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.HTTPErrorHandler = httpErrorHandler
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *config.DB, cfg *config.Config, fbApp *firebase.App, mailer *email.Sender, hub *ws.Hub) {
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Dog{},
		&models.UserDog{},
		&models.AvailabilityOffer{},
		&models.AvailabilityRequest{},
		&models.Match{},
		&models.Notification{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	dogRepo := repositories.NewPostgresDogRepository(db.Postgres)
	availabilityRepo := repositories.NewPostgresAvailabilityRepository(db.Postgres)
	matchRepo := repositories.NewPostgresMatchRepository(db.Postgres, cfg.LockTimeout.Milliseconds())
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	messageRepo := repositories.NewPostgresMessageRepository(db.Postgres)

	// --- Initialize Services ---
	// Interface values must stay nil when the concrete sink is absent,
	// otherwise the services see a non-nil interface holding a nil pointer.
	var emailSink services.EmailSink
	if mailer != nil {
		emailSink = mailer
	}
	var pushSink services.PushSink
	if fbApp != nil {
		pushSink = fbApp
	}

	matchService := services.NewMatchService(availabilityRepo, matchRepo, notificationRepo, dogRepo, emailSink, pushSink, hub, cfg.AppURL)
	messageService := services.NewMessageService(messageRepo, userRepo, pushSink, hub)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authGroup.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Limit:  10,
		Window: time.Minute,
		Prefix: "rl:auth",
	}, db.Redis))
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	authHandler.RegisterAccountRoutes(api)

	availabilityHandler := handlers.NewAvailabilityHandler(matchService, availabilityRepo, userRepo)
	availabilityHandler.RegisterAvailabilityRoutes(api)
	log.Println("Availability routes configured.")

	matchHandler := handlers.NewMatchHandler(matchService, userRepo)
	matchHandler.RegisterMatchRoutes(api)
	log.Println("Match routes configured.")

	messageHandler := handlers.NewMessageHandler(messageService, userRepo)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Websocket endpoint authenticates via token query parameter, outside
	// the JWT header middleware.
	wsHandler := handlers.NewWSHandler(hub, cfg.JWTSecret, cfg.WSReadTimeout)
	wsHandler.RegisterWSRoutes(e)
	log.Println("Websocket endpoint configured.")
}

// httpErrorHandler translates application error codes into HTTP responses.
// Echo's own HTTP errors pass through unchanged.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, echo.Map{"error": he.Message})
		return
	}

	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidArgument, apperrors.CodeFailedPrecondition:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		status = http.StatusForbidden
	case apperrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
		c.Response().Header().Set("Retry-After", "1")
	default:
		log.Printf("unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	c.JSON(status, echo.Map{
		"error": message,
		"code":  string(apperrors.CodeOf(err)),
	})
}
