// @title Club events API
// @version 1.0
// @description Event participation with lottery-phase admission, seat and parking allocation, and waitlists.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/lib/pq"

	"clubevents/config"
	_ "clubevents/docs"
	"clubevents/internal/adapters/auth"
	"clubevents/internal/adapters/email"
	"clubevents/internal/admission"
	deliveryhttp "clubevents/internal/delivery/http"
	"clubevents/internal/delivery/http/controllers"
	"clubevents/internal/delivery/http/middleware"
	"clubevents/internal/domain"
	"clubevents/internal/repository/memory"
	"clubevents/internal/repository/postgres"
	"clubevents/internal/services"
)

const shutdownTimeout = 10 * time.Second

// repositories is the storage backend chosen by STORAGE.
type repositories struct {
	store        domain.AdmissionStore
	events       domain.EventRepository
	participants domain.ParticipantRepository
	users        domain.UserRepository
	close        func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	repos, err := openRepositories(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Warn("closing storage", "err", err)
		}
	}()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	notifier := services.NewAdmissionNotifier(repos.users, mailer, renderer, logger)

	eventSvc := services.NewEventService(repos.events, cfg.Admission.Timeout)
	admissionSvc := services.NewAdmissionService(
		repos.store,
		repos.events,
		repos.participants,
		admission.NewAllocator(cfg.Location),
		notifier,
		logger,
		services.AdmissionOptions{
			Timeout:         cfg.Admission.Timeout,
			MaxRetries:      cfg.Admission.MaxRetries,
			RetryBackoff:    cfg.Admission.RetryBackoff,
			PromoteOnCancel: cfg.Admission.PromoteOnCancel,
		},
	)

	mux := deliveryhttp.NewRouter(
		controllers.NewEventController(logger, eventSvc, admissionSvc),
		controllers.NewParticipationController(logger, admissionSvc, services.NewMemberService(repos.users, cfg.Admission.Timeout)),
		auth.NewJWTVerifier(cfg.JWTSecret),
		logger,
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openRepositories(cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			store:        store,
			events:       store.Events(),
			participants: store.Participants(),
			users:        store.Users(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(context.Background(), db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &repositories{
		store:        postgres.NewAdmissionStore(db),
		events:       postgres.NewEventRepository(db),
		participants: postgres.NewParticipantRepository(db),
		users:        postgres.NewUserRepository(db),
		close:        db.Close,
	}, nil
}
