package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rivaq/rivaq-backend/internal/config"
	"github.com/rivaq/rivaq-backend/internal/logging"
	"github.com/rivaq/rivaq-backend/internal/media"
	miniorepo "github.com/rivaq/rivaq-backend/internal/repository/minio"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/repository/postgres"
	redisrepo "github.com/rivaq/rivaq-backend/internal/repository/redis"
	"github.com/rivaq/rivaq-backend/internal/service"
	httptransport "github.com/rivaq/rivaq-backend/internal/transport/http"
	"github.com/rivaq/rivaq-backend/internal/transport/mail"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const shutdownTimeout = 15 * time.Second

// bodyLimit leaves room for multipart framing around the largest accepted avatar.
func bodyLimit(avatarMax int64) string {
	return strconv.FormatInt(avatarMax/1024+64, 10) + "K"
}

func main() {
	cfg := config.Load()
	logger, logCloser := logging.Setup(cfg.LogLevel, cfg.LogstashTCPAddr)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := postgres.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("postgres connected", slog.String("driver", cfg.DatabaseDriver))

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	accountRepo := postgres.NewAccountRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	taskRepo := postgres.NewTaskRepo(db)
	meetingRepo := postgres.NewMeetingRepo(db)

	var limiter ports.RateLimiter
	if cfg.RedisAddr != "" {
		rc := redisrepo.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, reset limits fail open until it recovers", slog.Any("err", err))
		}
		limiter = redisrepo.NewFixedWindowLimiter(rc, "rivaq:")
	} else {
		logger.Warn("REDIS_ADDR not set, reset requests are not rate limited")
	}

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := miniorepo.NewClient(miniorepo.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Region:    cfg.MinIORegion,
		})
		if err != nil {
			return err
		}
		store := miniorepo.NewStorage(client, cfg.MinIOPublicURL)
		if err := store.EnsureBucket(ctx, cfg.MinIOBucketProfile); err != nil {
			logger.Warn("avatar bucket check failed", slog.String("bucket", cfg.MinIOBucketProfile), slog.Any("err", err))
		}
		storage = store
	}

	var resetSender service.PasswordResetSender
	smtpMailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		From:        cfg.SMTPFrom,
		FromName:    cfg.MailFromName,
		ImplicitTLS: cfg.SMTPUseTLS,
	})
	if smtpMailer.Configured() {
		resetSender = mail.NewPasswordResetMailer(smtpMailer)
	} else {
		logger.Warn("SMTP not configured, password reset links will not be delivered")
	}

	policy := util.PasswordPolicy{MinLength: cfg.PasswordMinLength, RequireMixed: cfg.PasswordRequireMixed}
	credentials := service.NewCredentialService(accountRepo, policy, cfg.PasswordResetTokenLength, cfg.PasswordResetTTL)
	authService := service.NewAuthService(credentials, accountRepo, sessionRepo, resetSender, limiter,
		util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL), logger,
		service.AuthOptions{
			ResetLinkBase:      cfg.FrontendBaseURL,
			ResetRateLimit:     cfg.ResetRateLimit,
			ResetRateWindow:    cfg.ResetRateWindow,
			ResetResponseFloor: cfg.ResetResponseFloor,
		})
	accountService := service.NewAccountService(accountRepo, sessionRepo, credentials, storage,
		media.NewImageProcessor(cfg.AvatarMaxDimension),
		service.AvatarOptions{
			Bucket:       cfg.MinIOBucketProfile,
			MaxBytes:     cfg.AvatarMaxBytes,
			MaxDimension: cfg.AvatarMaxDimension,
		})

	e := httptransport.NewRouter(httptransport.RouterOptions{
		AllowOrigins: cfg.AllowOrigins,
		Logger:       logger,
		BodyLimit:    bodyLimit(cfg.AvatarMaxBytes),
		HealthCheck:  db.PingContext,
	})
	httptransport.RegisterPages(e)
	httptransport.RegisterSwagger(e, "docs/swagger.yaml")
	httptransport.RegisterAuth(e, authService, httptransport.AuthRoutesOptions{
		Limiter:       limiter,
		ResetIPLimit:  cfg.ResetIPRateLimit,
		ResetIPWindow: cfg.ResetRateWindow,
	})
	httptransport.RegisterAccounts(e, authService, accountService)
	httptransport.RegisterTasks(e, authService, service.NewTaskService(taskRepo))
	httptransport.RegisterMeetings(e, authService, service.NewMeetingService(meetingRepo))
	httptransport.RegisterDashboard(e, authService, service.NewDashboardService(taskRepo, meetingRepo))

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.Any("err", err))
	}
	if err := authService.Drain(shutdownCtx); err != nil {
		logger.Warn("pending reset emails not drained", slog.Any("err", err))
	}
	return nil
}
