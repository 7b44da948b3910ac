package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/httpapi"
	"github.com/suPer8Hu/pairhub/internal/httpapi/handlers"
	"github.com/suPer8Hu/pairhub/internal/store/rabbitmq"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		obs := newObserver(cfg, cmd.ErrOrStderr())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		if autoMigrate {
			if err := gdb.WithContext(ctx).AutoMigrate(conversation.Models()...); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		staged, release, err := newStaging(ctx, cfg, obs)
		if err != nil {
			return err
		}
		defer release()

		// batch pairing is optional
		var jobs handlers.PairJobPublisher
		if cfg.RabbitURL != "" {
			pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
			if err != nil {
				return err
			}
			defer pub.Close()
			jobs = pub
		}

		gin.SetMode(gin.ReleaseMode)
		h := handlers.NewHandler(newService(gdb, staged, obs), jobs, obs)
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(h, obs),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			obs.Log().Info().Str("addr", cfg.HTTPAddr).Str("staging", cfg.StagingBackend).Msg("http server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		obs.Log().Info().Msg("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Migrate the schema before serving")
}
