package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/heatwave-risk-api/internal/logging"
	"github.com/i474232898/heatwave-risk-api/internal/metrics"
	"github.com/i474232898/heatwave-risk-api/internal/store"
)

// Probe is a named liveness check against one upstream.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Scheduler periodically probes the upstreams and records the results.
// Probe results are observational only; request handling never consults them.
type Scheduler struct {
	scheduler *gocron.Scheduler
	probes    []Probe
	interval  time.Duration
	timeout   time.Duration
	store     *store.MemoryStore
	metrics   *metrics.Metrics
	clock     clockwork.Clock
}

// New creates a new Scheduler. m may be nil.
func New(probes []Probe, interval, timeout time.Duration, st *store.MemoryStore, m *metrics.Metrics) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		probes:    probes,
		interval:  interval,
		timeout:   timeout,
		store:     st,
		metrics:   m,
		clock:     clockwork.NewRealClock(),
	}
}

// Start schedules the probe job and starts the underlying scheduler.
// A non-positive interval disables probing.
func (s *Scheduler) Start() error {
	if len(s.probes) == 0 || s.interval <= 0 {
		logging.Info().Msg("scheduler: upstream probing disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logging.Info().Dur("interval", s.interval).Int("probes", len(s.probes)).Msg("scheduler: upstream probing started")
	return nil
}

// RunOnce probes every upstream concurrently and waits for all of them.
func (s *Scheduler) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range s.probes {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := s.clock.Now()
			err := p.Check(pctx)
			result := store.ProbeResult{
				Upstream:  p.Name,
				OK:        err == nil,
				Latency:   s.clock.Since(start),
				CheckedAt: start.UTC(),
			}

			up := 1.0
			if err != nil {
				up = 0
				result.Error = err.Error()
				logging.Warn().Str("upstream", p.Name).Err(err).Msg("scheduler: upstream probe failed")
			}
			if s.metrics != nil {
				s.metrics.UpstreamUp.WithLabelValues(p.Name).Set(up)
			}
			s.store.Save(result)
		}()
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
