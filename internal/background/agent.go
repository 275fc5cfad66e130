package background

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/kardianos/service"

	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
)

// Agent runs the task immediately and then on every tick. It implements
// service.Interface so the service manager can start and stop it.
type Agent struct {
	Task     *Task
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (a *Agent) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	if a.Logger != nil {
		ctx = logging.WithLogger(ctx, a.Logger)
	}
	done := make(chan struct{})

	a.mu.Lock()
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	return nil
}

func (a *Agent) Stop(_ service.Service) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Run blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) {
	clock := a.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultInterval.Duration()
	}

	logger := logging.FromContext(ctx)
	logger.Info("agent started", "interval", interval)
	a.Task.Run(ctx)

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("agent stopped")
			return
		case <-ticker.Chan():
			a.Task.Run(ctx)
		}
	}
}
