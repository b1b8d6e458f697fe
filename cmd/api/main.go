package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"communityhub/internal/analytics"
	"communityhub/internal/announcements"
	"communityhub/internal/assistant"
	"communityhub/internal/auth"
	"communityhub/internal/awards"
	"communityhub/internal/cloudinary"
	"communityhub/internal/config"
	"communityhub/internal/httpapi"
	"communityhub/internal/httpmiddleware"
	"communityhub/internal/notifications"
	"communityhub/internal/queue"
	"communityhub/internal/store"
	"communityhub/internal/users"
	"communityhub/internal/workshops"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "communityhub:jobs")
	}

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	notifier := notifications.NewNotifier(q)

	userRepo := users.NewRepository(db.Client)
	awardRepo := awards.NewRepository(db.Client)
	notifRepo := notifications.NewRepository(db.Client)
	workshopRepo := workshops.NewRepository(db.Client)
	announcementRepo := announcements.NewRepository(db.Client)
	analyticsRepo := analytics.NewRepository(db.Client)

	userSvc := users.NewService(userRepo, awardRepo, notifRepo, notifier, users.TokenConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	workshopSvc := workshops.NewService(workshopRepo, notifier)
	awardSvc := awards.NewService(awardRepo, notifier, cfg.BulkWorkers)
	notifSvc := notifications.NewService(notifRepo, redisClient.Client)
	analyticsSvc := analytics.NewService(analyticsRepo, redisClient.Client)
	assistantClient := assistant.New(cfg.AssistantURL, cfg.AssistantKey, cfg.AssistantSkip)

	h := httpapi.New(userSvc, userRepo, workshopSvc, workshopRepo, announcementRepo, awardSvc, notifSvc, analyticsSvc, assistantClient, cdnClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil && db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/register", h.Register)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)
	r.POST("/v1/auth/logout", h.Logout)

	authGroup := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.GET("/me", h.Me)
	authGroup.POST("/me/avatar", h.UpdateAvatar)
	authGroup.POST("/upload", h.Upload)

	authGroup.GET("/workshops", h.ListWorkshops)
	authGroup.GET("/workshops/:id", h.GetWorkshop)
	authGroup.POST("/workshops", h.CreateWorkshop)
	authGroup.PUT("/workshops/:id", h.UpdateWorkshop)
	authGroup.DELETE("/workshops/:id", h.DeleteWorkshop)
	authGroup.POST("/workshops/:id/join", h.JoinWorkshop)
	authGroup.DELETE("/workshops/:id/join", h.LeaveWorkshop)
	authGroup.GET("/workshops/:id/participants", h.ListParticipants)
	authGroup.GET("/workshops/:id/comments", h.ListWorkshopComments)
	authGroup.POST("/workshops/:id/comments", h.AddWorkshopComment)

	authGroup.GET("/announcements", h.ListAnnouncements)
	authGroup.GET("/announcements/:id", h.GetAnnouncement)
	authGroup.POST("/announcements", h.CreateAnnouncement)
	authGroup.PUT("/announcements/:id", h.UpdateAnnouncement)
	authGroup.DELETE("/announcements/:id", h.DeleteAnnouncement)
	authGroup.POST("/announcements/:id/like", h.ToggleLike)
	authGroup.GET("/announcements/:id/comments", h.ListAnnouncementComments)
	authGroup.POST("/announcements/:id/comments", h.AddAnnouncementComment)

	authGroup.POST("/awards/issue", h.IssueAward)
	authGroup.POST("/awards/bulk", h.BulkIssueAwards)
	authGroup.POST("/awards/revoke", h.RevokeAwards)

	authGroup.GET("/notifications", h.ListNotifications)
	authGroup.POST("/notifications/:id/read", h.MarkNotificationRead)
	authGroup.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	authGroup.GET("/notifications/unread", h.UnreadNotifications)

	authGroup.GET("/analytics/overview", h.Overview)

	authGroup.POST("/assistant/chat", h.AssistantChat)
	authGroup.POST("/assistant/describe", h.DescribeWorkshop)

	adminGroup := authGroup.Group("", auth.RequireRole(string(users.RoleAdmin)))
	adminGroup.GET("/users", h.ListUsers)
	adminGroup.POST("/users/:id/promote", h.Promote)
	adminGroup.POST("/users/:id/demote", h.Demote)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
