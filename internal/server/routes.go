package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)                          // Health check endpoint
	v1.GET("/sentiment", h.SentimentAll)                 // Aggregates for all tracked projects
	v1.GET("/sentiment/:project", h.SentimentProject)    // Aggregate for one project
	v1.GET("/history/:project", h.History)               // Daily positive-share history
	v1.GET("/posts/recent", h.RecentPosts)               // Most recent posts across projects
	v1.GET("/posts/:project", h.ProjectPosts)            // Recent posts for one project
	v1.GET("/pnl", h.PNLCards)                           // Recent PNL cards
	v1.GET("/pnl/:project", h.PNLCards)                  // PNL cards for one project
	v1.GET("/trending", h.Trending)                      // Trending leaderboard
	// On-demand collection burns search quota; one request per 5s
	v1.POST("/update/:project", h.Update, middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2),
		Burst:     1,
		ExpiresIn: 2 * time.Minute,
	})))

	// Tracked-project CRUD endpoints
	projectGroup := v1.Group("/projects")
	projectGroup.GET("", h.ProjectsList)           // List all tracked projects
	projectGroup.POST("", h.ProjectsUpsert)        // Start tracking a project
	projectGroup.GET("/:name", h.ProjectsGet)      // Get one tracked project
	projectGroup.PUT("/:name", h.ProjectsUpdate)   // Replace a project's query
	projectGroup.DELETE("/:name", h.ProjectsDelete) // Stop tracking a project

	// On-chain registration is expensive; keep it tightly rate limited
	ipGroup := v1.Group("/ip")
	ipGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.1), // 1 request every 10 seconds
		Burst:     1,
		ExpiresIn: 5 * time.Minute,
	})))
	ipGroup.POST("/register/:project", h.IPRegister) // Anchor sentiment report on-chain

	// AI endpoints with rate limiting
	aigroup := v1.Group("/ai")
	aigroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,               // Allow burst of 2 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	aigroup.POST("/ask", h.AIAsk) // Natural language to SQL endpoint

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
