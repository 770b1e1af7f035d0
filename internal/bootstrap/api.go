package bootstrap

import (
	"errors"
	"strings"
	"time"

	apphttp "github.com/belikedeep/feedbacksense/adapter/in/http"
	"github.com/belikedeep/feedbacksense/config"
	"github.com/belikedeep/feedbacksense/pkg/apperr"
	"github.com/belikedeep/feedbacksense/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewAPI builds the Fiber application with all routes registered. The
// returned cleanup function releases every connection the dependency
// graph opened.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "feedbacksense-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: cfg.IsProduction(),

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		// go-json: faster JSON serialization than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 1 * 1024 * 1024, // feedback payloads are small
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: "request_id"}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS: AllowCredentials requires explicit origins, never "*"
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no envelope)
	healthHandler := apphttp.NewHealthHandler(deps.DB, deps.Redis)
	healthHandler.Register(app)

	// Pipeline routes
	api := app.Group("/api/v1")
	analysisHandler := apphttp.NewFeedbackAnalysisHandler(deps.AnalysisService, deps.Classifier, cfg)
	analysisHandler.Register(api)

	logger.Info("API server initialized successfully")

	return app, cleanup, nil
}

// errorHandler turns errors that escape a handler into the standard
// envelope. AppErrors keep their code and status; anything else is a 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success":   false,
			"error":     fiber.Map{"code": fiberErr.Code, "message": fiberErr.Message},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	appErr := apperr.AsAppError(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		logger.WithError(err).Error("unhandled error")
	}
	return c.Status(appErr.Status).JSON(fiber.Map{
		"success":   false,
		"error":     fiber.Map{"code": appErr.Code, "message": appErr.Message},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
