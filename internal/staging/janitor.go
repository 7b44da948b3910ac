package staging

import (
	"context"
	"sync"
	"time"

	"github.com/suPer8Hu/pairhub/internal/observe"
)

// DefaultSweepInterval is used when a Janitor is created with interval <= 0.
const DefaultSweepInterval = time.Minute

// Janitor periodically sweeps expired entries out of a MemoryStore.
type Janitor struct {
	store    *MemoryStore
	interval time.Duration
	obs      *observe.Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewJanitor(store *MemoryStore, interval time.Duration, obs *observe.Observer) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Janitor{store: store, interval: interval, obs: obs}
}

// Start begins sweeping in the background. Calling Start twice is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})
	j.running = true

	go j.run(runCtx)
}

// Stop cancels the sweeper and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	cancel, done := j.cancel, j.done
	j.running = false
	j.mu.Unlock()

	cancel()
	<-done
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.store.Sweep(); n > 0 {
				j.obs.Log().Info().Int("removed", n).Msg("staging sweep")
			}
		}
	}
}
