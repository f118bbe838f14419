package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/questsupremacy/questd/docs"
	"github.com/questsupremacy/questd/internal/api/handler"
	"github.com/questsupremacy/questd/internal/api/middleware"
	"github.com/questsupremacy/questd/internal/api/session"
	"github.com/questsupremacy/questd/internal/core/ports"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Identity     ports.IdentityService
	Profiles     ports.ProfileService
	Quests       ports.QuestService
	Sessions     *session.Manager
	HealthChecks map[string]handler.Check
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLog(d.Log))
	e.Use(middleware.Metrics("/metrics", "/health", "/health/ready"))
	e.Use(echomiddleware.BodyLimit("64K"))

	authHandler := handler.NewAuthHandler(d.Identity, d.Sessions)
	gameHandler := handler.NewGameHandler(d.Profiles, d.Quests)
	healthHandler := handler.NewHealthHandler(d.HealthChecks, d.Log)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, d.Sessions.RequireIdentity)

	// --- Game routes (session required) ---
	game := e.Group("/api/game", d.Sessions.RequireIdentity)
	game.GET("/player-stats", gameHandler.PlayerStats)
	game.GET("/daily-quests", gameHandler.DailyQuests)
	game.POST("/complete-quest", gameHandler.CompleteQuest)
	game.GET("/achievements", gameHandler.Achievements)
	game.GET("/settings", gameHandler.Settings)
	game.PUT("/settings", gameHandler.UpdateSettings)

	// --- Operations ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
