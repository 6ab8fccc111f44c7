package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is how often the background poller refreshes
// the local view from the server
const DefaultPollInterval = 30 * time.Second

// Poller periodically pulls server state into local storage. It never
// pushes; explicit syncs and workday close handle uploads.
type Poller struct {
	service  Service
	logger   *slog.Logger
	interval time.Duration
	stopC    chan struct{}
	doneC    chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewPoller creates a poller with the given interval. A non-positive
// interval falls back to DefaultPollInterval.
func NewPoller(service Service, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		service:  service,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the polling loop. Calling Start on a running poller
// is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopC = make(chan struct{})
	p.doneC = make(chan struct{})

	go p.loop(ctx, p.stopC, p.doneC)
}

// Stop terminates the polling loop and waits for it to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stopC, doneC := p.stopC, p.doneC
	p.mu.Unlock()

	close(stopC)
	<-doneC
}

func (p *Poller) loop(ctx context.Context, stopC, doneC chan struct{}) {
	defer close(doneC)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-stopC:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll runs one pull. Failures are logged and swallowed; the device
// keeps working offline and the next tick retries.
func (p *Poller) poll(ctx context.Context) {
	result, err := p.service.Pull(ctx)
	if err != nil {
		p.logger.Debug("background pull skipped", "error", err)
		return
	}

	if result.PulledTickets > 0 || result.PulledUsers > 0 {
		p.logger.Info("background pull applied changes",
			"tickets", result.PulledTickets,
			"users", result.PulledUsers)
	}
}
