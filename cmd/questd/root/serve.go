package root

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/questsupremacy/questd/internal/api"
	"github.com/questsupremacy/questd/internal/api/session"
	"github.com/questsupremacy/questd/internal/core/service"
	"github.com/questsupremacy/questd/internal/infrastructure/rollover"
	"github.com/questsupremacy/questd/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API and the daily rollover sweeper.

The process stops gracefully on SIGINT or SIGTERM: in-flight requests are
given a grace period and the sweeper is stopped before the store is closed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set, using a random secret; sessions end on restart")
	}

	quests := service.NewQuestGenerator(cfg.Rollover.BatchSize)
	identitySvc := service.NewIdentityService(b.store, quests, logger.Component("identity"))
	profileSvc := service.NewProfileService(b.store, quests, logger.Component("profile"))
	questSvc := service.NewQuestService(b.store, quests, logger.Component("quests"))

	e := api.NewRouter(api.Deps{
		Identity:     identitySvc,
		Profiles:     profileSvc,
		Quests:       questSvc,
		Sessions:     session.NewManager(secret, cfg.Session, !cfg.IsDevelopment()),
		HealthChecks: b.checks,
		Log:          logger.Component("http"),
	})

	sweeper := rollover.NewSweeper(questSvc, cfg.Rollover.Interval, log)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweeper.Start(sweepCtx)
	defer func() {
		stopSweep()
		sweeper.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Store.Backend).Msg("questd listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
