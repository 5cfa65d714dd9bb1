package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/broker"
	"github.com/heartline/heartline/internal/config"
	"github.com/heartline/heartline/internal/database"
	"github.com/heartline/heartline/internal/handler"
	"github.com/heartline/heartline/internal/mail"
	"github.com/heartline/heartline/internal/middleware"
	"github.com/heartline/heartline/internal/outbox"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/service"
	"github.com/heartline/heartline/internal/storage"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Log.Info("Config loaded successfully", zap.String("environment", cfg.Environment))

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Initialize Redis Broker (process-wide)
	redisBroker, err := broker.Init(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Redis broker", zap.Error(err))
	}
	defer redisBroker.Close()

	// Undelivered publishes are journaled and replayed
	journal, err := outbox.NewJournal(cfg.OutboxPath)
	if err != nil {
		logger.Log.Fatal("Failed to open outbox", zap.Error(err))
	}
	defer journal.Close()
	publisher := outbox.NewPublisher(redisBroker, journal)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher.StartReplayer(ctx, cfg.OutboxReplayEvery)

	images, err := storage.NewS3ImageHost(ctx, storage.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		PublicURL:    cfg.S3PublicURL,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize image host", zap.Error(err))
	}

	var mailer mail.Sender = mail.LogSender{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Log.Warn("SMTP_HOST not set, emails are only logged")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Initialize services
	tokenService := service.NewTokenService(tokenRepo)
	authService := service.NewAuthService(userRepo, tokenService, mailer, cfg.JWTSecret, cfg.JWTExpiry, cfg.AppBaseURL)
	memberService := service.NewMemberService(memberRepo, photoRepo, userRepo)
	photoService := service.NewPhotoService(photoRepo, memberRepo, userRepo, images)
	adminService := service.NewAdminService(photoRepo, memberRepo, userRepo, images)
	likeService := service.NewLikeService(likeRepo, userRepo, memberRepo, publisher)
	messageService := service.NewMessageService(messageRepo, publisher)

	signer := realtime.NewSigner(cfg.RealtimeAppKey, cfg.RealtimeAppSecret)
	presence := broker.NewPresenceRegistry(redisBroker.Client())

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, cfg.IsProduction(), cfg.JWTExpiry),
		Member:    handler.NewMemberHandler(memberService),
		Like:      handler.NewLikeHandler(likeService),
		Message:   handler.NewMessageHandler(messageService),
		Photo:     handler.NewPhotoHandler(photoService),
		Admin:     handler.NewAdminHandler(authService, adminService),
		Realtime:  handler.NewRealtimeHandler(signer),
		WebSocket: handler.NewWebSocketHandler(redisBroker, presence, signer),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authLimiter := middleware.NewRateLimiter(redisBroker.Client(), middleware.RateLimiterConfig{
		Scope:       "auth",
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	imageOrigins := []string{}
	if cfg.S3PublicURL != "" {
		imageOrigins = append(imageOrigins, cfg.S3PublicURL)
	}

	router := handler.NewRouter(handlers, handler.RouterOptions{
		JWTSecret:    cfg.JWTSecret,
		IsProduction: cfg.IsProduction(),
		CORSOrigins:  cfg.CORSOrigins,
		ImageOrigins: imageOrigins,
		AuthLimiter:  authLimiter,
	})

	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
