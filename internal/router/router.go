package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stemsi/papercraft/internal/handler"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Health     *handler.HealthHandler
	Catalog    *handler.CatalogHandler
	Auth       *handler.AuthHandler
	Paper      *handler.PaperHandler
	Section    *handler.SectionHandler
	Question   *handler.QuestionHandler
	Suggestion *handler.SuggestionHandler
	Output     *handler.OutputHandler
	WS         *handler.WSHandler
}

// Limiters are the rate limiting middlewares of the costly routes.
type Limiters struct {
	Login      gin.HandlerFunc
	Suggestion gin.HandlerFunc
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	limiters Limiters,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// PDF and xlsx downloads are skipped by the default config.
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/catalog", middleware.CacheControl(3600), handlers.Catalog.GetCatalog)
	}

	// ─── 1. Auth ───────────────────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/login", limiters.Login, handlers.Auth.Login)

		authed := authAPI.Group("")
		authed.Use(middleware.RequireAuthorJWT(authService), middleware.CheckAuthorSession(authService))
		authed.GET("/me", handlers.Auth.Me)
		authed.POST("/logout", handlers.Auth.Logout)
		authed.PUT("/password", limiters.Login, handlers.Auth.ChangePassword)
	}

	// ─── 2. Papers (Author JWT) ────────────────────────────────────────
	papers := router.Group("/api/v1/papers")
	papers.Use(
		middleware.RequireAuthorJWT(authService),
		middleware.CheckAuthorSession(authService),
		middleware.NoStore(),
	)
	{
		papers.GET("", handlers.Paper.ListPapers)
		papers.POST("", handlers.Paper.CreatePaper)
		papers.POST("/import", handlers.Paper.ImportPaper)
		papers.GET("/:id", handlers.Paper.GetPaper)
		papers.PATCH("/:id", handlers.Paper.UpdatePaper)
		papers.PUT("/:id/document", handlers.Paper.ReplaceDocument)
		papers.DELETE("/:id", handlers.Paper.DeletePaper)

		// Sections
		papers.POST("/:id/sections", handlers.Section.AddSection)
		papers.PATCH("/:id/sections/:section_id", handlers.Section.UpdateSection)
		papers.DELETE("/:id/sections/:section_id", handlers.Section.DeleteSection)
		papers.POST("/:id/sections/:section_id/move", handlers.Section.MoveSection)

		// Questions
		papers.POST("/:id/sections/:section_id/questions", handlers.Question.AddQuestion)
		papers.PATCH("/:id/sections/:section_id/questions/:question_id", handlers.Question.UpdateQuestion)
		papers.DELETE("/:id/sections/:section_id/questions/:question_id", handlers.Question.DeleteQuestion)
		papers.POST("/:id/sections/:section_id/questions/:question_id/move", handlers.Question.MoveQuestion)

		// AI suggestions
		papers.POST("/:id/sections/:section_id/suggestions", limiters.Suggestion, handlers.Suggestion.RequestSuggestions)
		papers.GET("/:id/sections/:section_id/suggestions", handlers.Suggestion.SuggestionStatus)

		// Output
		papers.GET("/:id/preview", handlers.Output.Preview)
		papers.GET("/:id/preview.txt", handlers.Output.PreviewText)
		papers.GET("/:id/print", handlers.Output.Print)
		papers.GET("/:id/export.json", handlers.Output.ExportJSON)
		papers.GET("/:id/export.pdf", handlers.Output.ExportPDF)
		papers.GET("/:id/export.xlsx", handlers.Output.ExportXLSX)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuthorWSAuth(authService), middleware.CheckAuthorSession(authService))
	{
		ws.GET("/papers/:id/preview", handlers.WS.PreviewStream)
	}

	return router
}
