package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rivaq/rivaq-backend/internal/config"
	"github.com/rivaq/rivaq-backend/internal/logging"
	"github.com/rivaq/rivaq-backend/internal/repository/postgres"
	"github.com/rivaq/rivaq-backend/internal/seed"
	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

func main() {
	file := flag.String("file", "", "YAML seed file with accounts, tasks and meetings")
	purgeReset := flag.Bool("purge-reset", false, "clear expired password reset tokens and dead sessions")
	migrate := flag.Bool("migrate", true, "apply database migrations first")
	flag.Parse()

	cfg := config.Load()
	logger, logCloser := logging.Setup(cfg.LogLevel, cfg.LogstashTCPAddr)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *file == "" && !*purgeReset && !*migrate {
		logger.Error("nothing to do: pass -file, -purge-reset or -migrate")
		os.Exit(2)
	}

	if err := run(ctx, cfg, logger, *file, *purgeReset, *migrate); err != nil {
		logger.Error("seed failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, file string, purgeReset, migrate bool) error {
	db, err := postgres.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	accountRepo := postgres.NewAccountRepo(db)
	policy := util.PasswordPolicy{MinLength: cfg.PasswordMinLength, RequireMixed: cfg.PasswordRequireMixed}

	if file != "" {
		f, err := seed.Load(file)
		if err != nil {
			return err
		}
		seeder := seed.NewSeeder(accountRepo, postgres.NewTaskRepo(db), postgres.NewMeetingRepo(db), policy, logger)
		report, err := seeder.Run(ctx, f)
		if err != nil {
			return err
		}
		logger.Info("seed complete",
			slog.Int("accounts_created", report.AccountsCreated),
			slog.Int("accounts_skipped", report.AccountsSkipped),
			slog.Int("tasks_created", report.TasksCreated),
			slog.Int("meetings_created", report.MeetingsCreated))
	}

	if purgeReset {
		credentials := service.NewCredentialService(accountRepo, policy, cfg.PasswordResetTokenLength, cfg.PasswordResetTTL)
		n, err := credentials.PurgeExpiredResetTokens(ctx)
		if err != nil {
			return err
		}
		logger.Info("expired reset tokens cleared", slog.Int64("accounts", n))

		purged, err := postgres.NewSessionRepo(db).PurgeInactive(ctx, time.Now().Add(-cfg.SessionTTL))
		if err != nil {
			return err
		}
		logger.Info("inactive sessions removed", slog.Int64("sessions", purged))
	}
	return nil
}
