// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pettyapp/go-petty-backend/internal/blob"
	"github.com/pettyapp/go-petty-backend/internal/config"
	"github.com/pettyapp/go-petty-backend/internal/http/handlers"
	"github.com/pettyapp/go-petty-backend/internal/http/middleware"
	"github.com/pettyapp/go-petty-backend/internal/identity"
	"github.com/pettyapp/go-petty-backend/internal/services"
	"github.com/pettyapp/go-petty-backend/internal/species"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with email redaction
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS, gzip, and security headers
//  9. Auth on the API group only; health, metrics, and swagger stay open
func RegisterRoutes(r *gin.Engine, st store.Store, verifier identity.Verifier, uploader blob.Uploader, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit, sized for profile image uploads
	r.Use(limitBody(6 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compress JSON responses; the websocket upgrade must stay untouched.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/ws$`})))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API documentation, opt-in per environment
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))
	}

	// Dependency injection: services ← store/clients
	chatSvc := services.NewChatService(st)
	animalSvc := services.NewAnimalService(st)
	userSvc := services.NewUserService(st)
	catalog := species.New(cfg.SpeciesAPIURL, nil)

	h := handlers.New(
		chatSvc,
		animalSvc,
		userSvc,
		catalog,
		uploader,
		func(userID string) handlers.FavoritesChecker {
			return services.NewFavoritesChecker(st, userID)
		},
		func(viewerEmail string) *services.ChatFeed {
			return services.NewChatFeed(chatSvc, viewerEmail)
		},
	)

	// Public API, bearer-token authenticated
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(verifier))
	{
		// Users
		api.POST("/users", h.Register)
		api.GET("/users/lookup", h.Lookup)
		api.GET("/me", h.Me)
		api.PATCH("/me/nickname", h.UpdateNickname)
		api.PATCH("/me/bio", h.UpdateBio)
		api.POST("/me/profile-image", h.UploadProfileImage)

		// Animals
		api.GET("/animals", h.ListAnimals)
		api.GET("/animals/mine", h.ListMyAnimals)
		api.GET("/animals/:id", h.GetAnimal)
		api.POST("/animals", h.CreateAnimal)
		api.DELETE("/animals/:id", h.DeleteAnimal)
		api.GET("/species", h.ListSpecies)

		// Favorites
		api.GET("/me/favorites", h.ListFavorites)
		api.PUT("/me/favorites/:animalID", h.AddFavorite)
		api.DELETE("/me/favorites/:animalID", h.RemoveFavorite)

		// Chats
		api.GET("/chats", h.ListChats)
		api.POST("/chats/messages", h.SendMessage)
		api.GET("/chats/:id/messages", h.ListMessages)

		// Live feed
		api.GET("/ws", h.ChatFeedSocket)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the
// cap will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
