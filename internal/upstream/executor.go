// Package upstream executes outbound HTTP calls to the weather provider and the
// ML service with a per-call timeout, status checking, metrics, and optional
// circuit breaking and retries.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/heatwave-risk-api/internal/logging"
	"github.com/i474232898/heatwave-risk-api/internal/metrics"
)

// BackoffConfig controls exponential backoff between retries.
// MaxRetries of 0 means a single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config describes one upstream.
type Config struct {
	Name    string
	Client  *http.Client
	Backoff BackoffConfig
	Breaker bool
	Metrics *metrics.Metrics
}

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrServerError  = errors.New("server error")
	ErrUnexpected   = errors.New("unexpected status code")
	ErrCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errInvalidRetry = errors.New("invalid backoff configuration")
)

// Executor sends requests to a single upstream.
type Executor struct {
	name    string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// New builds an Executor. The breaker is only created when cfg.Breaker is set.
func New(cfg Config) *Executor {
	e := &Executor{
		name:    cfg.Name,
		client:  cfg.Client,
		backoff: cfg.Backoff,
		metrics: cfg.Metrics,
	}
	if e.backoff.MaxRetries > 0 && e.backoff.InitialInterval <= 0 {
		e.backoff.InitialInterval = 500 * time.Millisecond
	}

	if cfg.Breaker {
		e.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("upstream", name).Str("from", from.String()).Str("to", to.String()).
					Msg("circuit breaker state change")
				if e.metrics != nil {
					e.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		})
		if e.metrics != nil {
			e.metrics.BreakerState.WithLabelValues(cfg.Name).Set(0)
		}
	}
	return e
}

// Name returns the upstream label used in logs and metrics.
func (e *Executor) Name() string {
	return e.name
}

// Do sends the request built by buildRequest and returns a 2xx response.
// The caller closes the body. Non-2xx responses are drained, closed, and
// turned into errors.
func (e *Executor) Do(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if e.client == nil {
		return nil, errNoHTTPClient
	}
	if e.backoff.MaxRetries < 0 {
		return nil, errInvalidRetry
	}

	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := e.attempt(req)
		if err == nil {
			e.observe("success")
			return resp, nil
		}

		if errors.Is(err, ErrCircuitOpen) {
			e.observe("circuit_open")
			return nil, err
		}
		e.observe("error")

		if attempt >= e.backoff.MaxRetries {
			return nil, err
		}

		delay := e.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if e.backoff.MaxInterval > 0 && delay > e.backoff.MaxInterval {
			delay = e.backoff.MaxInterval
		}
		logging.Debug().Str("upstream", e.name).Int("attempt", attempt+1).Dur("delay", delay).Err(err).
			Msg("retrying upstream request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func (e *Executor) attempt(req *http.Request) (*http.Response, error) {
	if e.circuit == nil {
		return e.send(req)
	}

	result, err := e.circuit.Execute(func() (interface{}, error) {
		return e.send(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCircuitOpen, e.name, err)
		}
		return nil, err
	}
	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

func (e *Executor) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := e.client.Do(req)
	if e.metrics != nil {
		e.metrics.UpstreamDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, e.name)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrServerError, e.name, resp.StatusCode, body)
	default:
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrUnexpected, e.name, resp.StatusCode, body)
	}
}

func (e *Executor) observe(outcome string) {
	if e.metrics != nil {
		e.metrics.UpstreamRequests.WithLabelValues(e.name, outcome).Inc()
	}
}
