// Package main runs the event platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventmate/backend/config"
	"github.com/eventmate/backend/internal/ads"
	"github.com/eventmate/backend/internal/audit"
	"github.com/eventmate/backend/internal/auth"
	"github.com/eventmate/backend/internal/billing"
	"github.com/eventmate/backend/internal/chat"
	"github.com/eventmate/backend/internal/communities"
	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/notifications"
	"github.com/eventmate/backend/internal/posts"
	"github.com/eventmate/backend/internal/social"
	"github.com/eventmate/backend/internal/venues"
	"github.com/eventmate/backend/internal/worker"
	"github.com/eventmate/backend/pkg/database"
	"github.com/eventmate/backend/pkg/queue"
	"github.com/eventmate/backend/pkg/redis"
	"github.com/eventmate/backend/pkg/response"
	"github.com/eventmate/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ImagesBucket:         cfg.AWS.ImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	pubsub := chat.NewRedisPubSub(rdb.Client, logger)
	relay := chat.NewRelay(logger, pubsub, pubsub)
	relay.Start()
	defer relay.Stop()

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications (enqueue on request resolution; worker delivers)
	notificationRepo := notifications.NewRepository(pool)
	notificationSvc := notifications.NewService(notificationRepo, jobQueue, logger)
	notificationHandler := notifications.NewHandler(notificationRepo)

	// Billing (Stripe subscriptions lift the event creation limit)
	billingRepo := billing.NewRepository(pool)
	billingHandler := billing.NewHandler(billingRepo, cfg.Stripe, logger)

	// Events and the join-request workflow
	eventRepo := events.NewRepository(pool)
	eventSvc := events.NewService(eventRepo, billingRepo, notificationSvc, cfg.Events.MonthlyCreateLimit, logger)
	eventHandler := events.NewHandler(eventSvc, logger)

	// Venues
	venueRepo := venues.NewRepository(pool)
	venueHandler := venues.NewHandler(venueRepo, logger)

	// Communities and their join workflow
	communityRepo := communities.NewRepository(pool)
	communitySvc := communities.NewService(communityRepo, notificationSvc, logger)
	communityHandler := communities.NewHandler(communitySvc, logger)

	// Posts and feed
	postRepo := posts.NewRepository(pool)
	postHandler := posts.NewHandler(postRepo, communityRepo, s3Client, logger)

	// Follows
	socialRepo := social.NewRepository(pool)
	socialHandler := social.NewHandler(socialRepo, logger)

	// Direct messages over the relay
	chatRepo := chat.NewRepository(pool)
	chatSvc := chat.NewService(chatRepo, relay, logger)
	chatHandler := chat.NewHandler(chatSvc, logger)

	// Ads and the carousel rotator
	adRepo := ads.NewRepository(pool)
	rotator := ads.NewRotator(adRepo, relay, s3Client, cfg.Ads.RotationSeconds, logger)
	adHandler := ads.NewHandler(adRepo, s3Client, rotator, logger)

	// Audit trail
	auditRepo := audit.NewRepository(pool)
	auditHandler := audit.NewHandler(auditRepo, eventRepo, communityRepo, logger)

	jwtValidate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)
		api.GET("/users/me", authHandler.Me)
		api.PATCH("/users/me", authHandler.UpdateMe)
		api.GET("/users/me/events", eventHandler.ListMine)
		api.GET("/users/:userId", authHandler.GetUser)

		// Follows
		api.POST("/users/:userId/follow", socialHandler.Follow)
		api.POST("/users/:userId/unfollow", socialHandler.Unfollow)
		api.GET("/users/:userId/followers", socialHandler.Followers)
		api.GET("/users/:userId/following", socialHandler.Following)
		api.GET("/users/:userId/follow-counts", socialHandler.Counts)

		// Venues (writes admin only)
		api.GET("/venues", venueHandler.List)
		api.GET("/venues/:venueId", venueHandler.GetByID)
		api.POST("/venues", middleware.RequireRole("admin"), venueHandler.Create)
		api.PATCH("/venues/:venueId", middleware.RequireRole("admin"), venueHandler.Update)
		api.DELETE("/venues/:venueId", middleware.RequireRole("admin"), venueHandler.Delete)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireRole("admin", "organizer"), eventHandler.Create)
		api.GET("/events/:eventId", eventHandler.GetByID)
		api.PATCH("/events/:eventId", eventHandler.Update)
		api.DELETE("/events/:eventId", eventHandler.Delete)
		api.GET("/events/:eventId/attendees", eventHandler.ListAttendees)

		// Event join workflow
		api.POST("/events/:eventId/request", eventHandler.Request)
		api.POST("/events/:eventId/cancel-request", eventHandler.CancelRequest)
		api.GET("/events/:eventId/requests", eventHandler.ListRequests)
		api.POST("/accept", eventHandler.Accept)
		api.POST("/reject", eventHandler.Reject)
		api.GET("/events/:eventId/audit", auditHandler.ListForEvent)

		// Communities
		api.GET("/communities", communityHandler.List)
		api.POST("/communities", communityHandler.Create)
		api.GET("/communities/:communityId", communityHandler.GetByID)
		api.GET("/communities/:communityId/members", communityHandler.ListMembers)
		api.GET("/communities/:communityId/questions", communityHandler.ListQuestions)
		api.PUT("/communities/:communityId/questions", communityHandler.SetQuestions)

		// Community join workflow
		api.POST("/communities/:communityId/join", communityHandler.Join)
		api.POST("/communities/:communityId/leave", communityHandler.Leave)
		api.GET("/communities/:communityId/requests", communityHandler.ListRequests)
		api.POST("/communities/:communityId/accept-request", communityHandler.Accept)
		api.POST("/communities/:communityId/reject-request", communityHandler.Reject)
		api.GET("/communities/:communityId/audit", auditHandler.ListForCommunity)

		// Posts and feed
		api.GET("/feed", postHandler.Feed)
		api.POST("/communities/:communityId/posts", postHandler.Create)
		api.GET("/communities/:communityId/posts", postHandler.ListByCommunity)
		api.GET("/posts/:postId", postHandler.GetByID)
		api.DELETE("/posts/:postId", postHandler.Delete)
		api.POST("/posts/:postId/like", postHandler.Like)
		api.POST("/posts/:postId/unlike", postHandler.Unlike)
		api.POST("/posts/:postId/comments", postHandler.CreateComment)
		api.GET("/posts/:postId/comments", postHandler.ListComments)
		api.DELETE("/comments/:commentId", postHandler.DeleteComment)
		api.POST("/posts/upload-url", postHandler.UploadURL)

		// Direct messages
		api.POST("/messages", chatHandler.Send)
		api.GET("/messages/:userId", chatHandler.Conversation)
		api.GET("/conversations", chatHandler.Conversations)

		// Notifications
		api.GET("/notifications", notificationHandler.List)

		// Ads (admin writes, public carousel read)
		api.GET("/ads/active", adHandler.ListActive)
		api.GET("/ads", middleware.RequireRole("admin"), adHandler.List)
		api.POST("/ads/upload", middleware.RequireRole("admin"), adHandler.Upload)
		api.POST("/ads", middleware.RequireRole("admin"), adHandler.Create)
		api.POST("/ads/:adId/toggle", middleware.RequireRole("admin"), adHandler.Toggle)
		api.DELETE("/ads/:adId", middleware.RequireRole("admin"), adHandler.Delete)

		// Billing
		api.POST("/billing/checkout", billingHandler.Checkout)
		api.GET("/billing/subscription", billingHandler.GetSubscription)
	}

	// Webhooks (no JWT; Stripe signature verified in handler)
	router.POST("/webhooks/stripe", billingHandler.Webhook)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", chat.ServeWs(relay, chatSvc, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background pieces: ad rotation and, when running single-binary,
	// notification delivery.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Ads.RotationSeconds > 0 {
		rotator.Start()
		defer rotator.Stop()
	}
	if cfg.Email.APIKey == "" {
		// no separate worker deployment needed in dev: deliver inline via logs
		sender := &notifications.LogSender{Logger: logger}
		processor := worker.NewNotificationProcessor(notificationRepo, sender, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("inline notification worker started (log sender)")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
