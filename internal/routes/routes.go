package route

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snaplink/snaplink/config"
	"github.com/snaplink/snaplink/internal/handler"
	"github.com/snaplink/snaplink/internal/middleware"
	"github.com/snaplink/snaplink/internal/repository"
	"github.com/snaplink/snaplink/internal/service"
	"github.com/snaplink/snaplink/internal/token"
)

// SetupRouter wires repositories, services and handlers onto the gin
// engine. Auth and redirect routes are public; everything else under
// /api/v1 requires a bearer token.
func SetupRouter(cfg *config.Config, redisClient *redis.Client, pgClient *pgxpool.Pool) *gin.Engine {
	handler.RegisterValidators()

	userRepo := repository.NewUserRepository(pgClient)
	linkRepo := repository.NewPostgresLinkRepository(pgClient, redisClient)

	tokens := token.NewService(cfg.JWTSecret, cfg.JWTExpirationMinutes)

	authSvc := service.NewAuthService(userRepo, tokens, service.BcryptHasher{})
	linkSvc := service.NewLinkService(linkRepo, userRepo)

	authHandler := handler.NewAuthHandler(authSvc)
	linkHandler := handler.NewLinkHandler(linkSvc)
	redirectHandler := handler.NewRedirectHandler(linkSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := middleware.NewRateLimiter(100, 1*time.Minute)

	api := r.Group("/api/v1")
	api.Use(rateLimiter.Middleware())
	api.Use(middleware.AuthMiddleware(tokens))

	// Public routes
	api.POST("/auth/registration", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/s_link/:shortCode", redirectHandler.Redirect)

	// Protected routes
	links := api.Group("/shortener/:userId/links")
	links.Use(middleware.RequireAuth())
	links.POST("", linkHandler.Create)
	links.GET("", linkHandler.List)
	links.PUT("/:id", linkHandler.Replace)
	links.DELETE("/:id", linkHandler.Delete)

	return r
}
