package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/pairjob"
	"github.com/suPer8Hu/pairhub/internal/store/rabbitmq"
)

var maxAttempts int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume bulk pairing jobs from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.RabbitURL == "" {
			return fmt.Errorf("RABBIT_URL is required")
		}
		obs := newObserver(cfg, cmd.ErrOrStderr())

		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		// the worker only creates pairs; nothing is staged
		pairs := conversation.NewPairStore(gdb, obs)
		svc := conversation.NewService(pairs, conversation.NewSummaryStore(gdb, obs), nil, obs)

		retrier, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return fmt.Errorf("rabbit publisher: %w", err)
		}
		defer retrier.Close()

		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			return fmt.Errorf("rabbit dial: %w", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("rabbit channel: %w", err)
		}
		defer ch.Close()

		if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
			return fmt.Errorf("queue declare: %w", err)
		}

		// strict concurrency control
		concurrency := cfg.WorkerConcurrency
		if err := ch.Qos(concurrency, 0, false); err != nil {
			return fmt.Errorf("qos: %w", err)
		}

		msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		obs.Log().Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")
		pairjob.NewPool(svc, retrier, obs, concurrency, maxAttempts).Run(ctx, msgs)
		return nil
	},
}

func init() {
	workerCmd.Flags().IntVar(&maxAttempts, "max-attempts", pairjob.DefaultMaxAttempts, "Deliveries per job before it is dead-lettered")
}
