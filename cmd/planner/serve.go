package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"recurring-planner/internal/api"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the scheduler and, when configured, the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	telegramBot, err := a.telegram()
	if err != nil {
		return err
	}
	botErr := make(chan error, 1)
	if telegramBot != nil {
		go func() { botErr <- telegramBot.Start(ctx) }()
	}

	a.scheduler.Start()
	defer a.scheduler.Stop()

	router := api.NewRouter(api.Deps{
		Users:     a.users,
		Tasks:     a.tasks,
		Analytics: a.analytics,
		Habits:    a.habits,
		Scheduler: a.scheduler,
		Location:  a.loc,
		Log:       a.log,
	})
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Strs("jobs", a.scheduler.Jobs()).Msg("planner started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if err != nil {
			return err
		}
	case err := <-botErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Msg("bot stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info().Msg("shutdown complete")
	return nil
}
