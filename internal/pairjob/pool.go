package pairjob

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/suPer8Hu/pairhub/internal/observe"
)

// AttemptHeader counts deliveries of the same job.
const AttemptHeader = "x-attempt"

// DefaultMaxAttempts is used when a Pool is built with maxAttempts <= 0.
const DefaultMaxAttempts = 3

// Retrier re-queues a failed job for a later attempt.
type Retrier interface {
	Retry(ctx context.Context, body []byte, attempt int) error
}

// Pool consumes pair jobs with a fixed number of workers.
type Pool struct {
	creator     Creator
	retrier     Retrier
	obs         *observe.Observer
	concurrency int
	maxAttempts int
}

// NewPool builds a Pool. retrier may be nil, in which case failed jobs go
// straight to the dead-letter queue.
func NewPool(creator Creator, retrier Retrier, obs *observe.Observer, concurrency, maxAttempts int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Pool{creator: creator, retrier: retrier, obs: obs, concurrency: concurrency, maxAttempts: maxAttempts}
}

// Run dispatches deliveries to the workers until ctx is done or msgs closes,
// then waits for in-flight jobs.
func (p *Pool) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	jobs := make(chan amqp.Delivery, p.concurrency*2)

	var wg sync.WaitGroup
	wg.Add(p.concurrency)
	for i := 0; i < p.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				p.process(ctx, workerID, d)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			p.obs.Log().Info().Msg("pair worker shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				p.obs.Log().Warn().Msg("delivery channel closed")
				return
			}
			jobs <- d
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, d amqp.Delivery) {
	// buffered after shutdown began: hand it back untouched
	if ctx.Err() != nil {
		p.requeue(workerID, d)
		return
	}

	start := time.Now()
	pair, err := Handle(ctx, p.creator, d.Body)
	if err == nil {
		p.obs.Log().Info().Int("worker", workerID).Str("pair_id", pair.ID).Str("cost", time.Since(start).String()).Msg("pair job done")
		if err := d.Ack(false); err != nil {
			p.obs.Log().Warn().Int("worker", workerID).Err(err).Msg("ack failed")
		}
		return
	}

	// interrupted by shutdown, not a real failure; keep the attempt
	if ctx.Err() != nil {
		p.requeue(workerID, d)
		return
	}

	attempt := AttemptOf(d.Headers)
	log := p.obs.Log().Warn().Int("worker", workerID).Int("attempt", attempt).Err(err)

	if errors.Is(err, ErrBadMessage) || p.retrier == nil || attempt >= p.maxAttempts {
		log.Msg("pair job dead-lettered")
		_ = d.Nack(false, false)
		return
	}
	if rerr := p.retrier.Retry(ctx, d.Body, attempt+1); rerr != nil {
		log.Msg("pair job retry publish failed, dead-lettering")
		_ = d.Nack(false, false)
		return
	}
	log.Msg("pair job scheduled for retry")
	_ = d.Ack(false)
}

func (p *Pool) requeue(workerID int, d amqp.Delivery) {
	p.obs.Log().Info().Int("worker", workerID).Int("attempt", AttemptOf(d.Headers)).Msg("pair job requeued on shutdown")
	if err := d.Nack(false, true); err != nil {
		p.obs.Log().Warn().Int("worker", workerID).Err(err).Msg("requeue failed")
	}
}

// AttemptOf reads the attempt counter; a first delivery is attempt 1.
func AttemptOf(h amqp.Table) int {
	switch v := h[AttemptHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 1
}
