// Package monitor runs monitoring cycles: fetch every running auction,
// summarize them and report the figures.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/auction-monitor/pkg/auction"
	"github.com/Sternrassler/auction-monitor/pkg/logging"
	"github.com/Sternrassler/auction-monitor/pkg/runguard"
)

// Prometheus metrics for monitoring cycles.
var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_monitor_cycles_total",
		Help: "Monitoring cycles by result",
	}, []string{"result"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_monitor_cycle_duration_seconds",
		Help:    "Duration of monitoring cycles",
		Buckets: prometheus.DefBuckets,
	})

	lastAuctions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_monitor_auctions",
		Help: "Number of running auctions seen by the last successful cycle",
	})

	lastAverageBids = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_monitor_average_bids",
		Help: "Average number of bids per auction in the last successful cycle",
	})

	lastAverageProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_monitor_average_progress_percent",
		Help: "Average auction progress in percent in the last successful cycle",
	})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_monitor_last_success_timestamp_seconds",
		Help: "Unix time of the last successful cycle",
	})
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Messages written to the logging sink.
const (
	MsgStarted = "Auction Monitor started."
	MsgFailed  = "Auction Monitor failed"
)

// AuctionFetcher retrieves every running auction.
type AuctionFetcher interface {
	FetchAll(ctx context.Context) ([]auction.Auction, error)
}

// Summarizer reduces auctions to the reported figures.
type Summarizer interface {
	Summarize(auctions []auction.Auction) auction.Summary
}

// Logger is the message-oriented logging sink.
type Logger interface {
	Log(message string)
	Error(message string, fields map[string]any)
}

// CycleLock grants exclusive use of a cycle. Lock returns ErrCycleLocked
// (possibly wrapped) when another holder owns it.
type CycleLock interface {
	Lock(ctx context.Context) (unlock func(context.Context) error, err error)
}

// ErrCycleLocked is reported when a cycle could not take the cycle lock.
var ErrCycleLocked = errors.New("another monitoring cycle is running")

// Option configures a Monitor.
type Option func(*Monitor)

// WithLock makes every cycle hold lock while it runs.
func WithLock(lock CycleLock) Option {
	return func(m *Monitor) {
		m.lock = lock
	}
}

// WithZerolog replaces the structured logger used for cycle diagnostics.
func WithZerolog(logger zerolog.Logger) Option {
	return func(m *Monitor) {
		m.log = logger
	}
}

// Monitor orchestrates monitoring cycles.
type Monitor struct {
	fetcher    AuctionFetcher
	summarizer Summarizer
	logger     Logger
	lock       CycleLock
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a Monitor.
func New(fetcher AuctionFetcher, summarizer Summarizer, logger Logger, opts ...Option) (*Monitor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	m := &Monitor{
		fetcher:    fetcher,
		summarizer: summarizer,
		logger:     logger,
		log:        logging.NewLogger("monitor"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RunCycle runs one fetch-and-summarize cycle. Failures are logged once
// with MsgFailed and returned.
func (m *Monitor) RunCycle(ctx context.Context) (auction.Summary, error) {
	runID := uuid.NewString()
	log := m.log.With().Str("run_id", runID).Logger()
	start := m.now()

	m.logger.Log(MsgStarted)

	summary, err := m.cycle(ctx, log)
	cycleDuration.Observe(m.now().Sub(start).Seconds())

	if err != nil {
		cyclesTotal.WithLabelValues("failure").Inc()
		m.logger.Error(MsgFailed, failureFields(runID, err))
		log.Debug().Err(err).Msg("Cycle failed")
		return auction.Summary{}, err
	}

	cyclesTotal.WithLabelValues("success").Inc()
	lastAuctions.Set(float64(summary.NumberOfAuctions))
	lastAverageBids.Set(summary.AverageNumberOfBids)
	lastAverageProgress.Set(summary.AveragePercentageOfAuctionProgress)
	lastSuccess.Set(float64(m.now().Unix()))

	m.logger.Log("Number of auctions: " + strconv.Itoa(summary.NumberOfAuctions))
	m.logger.Log("Average number of bids: " + formatFigure(summary.AverageNumberOfBids))
	m.logger.Log("Average percentage of auction progress: " + formatFigure(summary.AveragePercentageOfAuctionProgress) + "%")

	log.Info().
		Int("auctions", summary.NumberOfAuctions).
		Float64("average_bids", summary.AverageNumberOfBids).
		Float64("average_progress", summary.AveragePercentageOfAuctionProgress).
		Dur("duration", m.now().Sub(start)).
		Msg("Cycle completed")

	return summary, nil
}

func (m *Monitor) cycle(ctx context.Context, log zerolog.Logger) (auction.Summary, error) {
	if m.lock != nil {
		unlock, err := m.lock.Lock(ctx)
		if err != nil {
			return auction.Summary{}, err
		}
		defer func() {
			// The lock expires on its own, so a failed unlock does not fail the cycle.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("Failed to release cycle lock")
			}
		}()
	}

	auctions, err := m.fetcher.FetchAll(ctx)
	if err != nil {
		return auction.Summary{}, err
	}
	log.Debug().Int("auctions", len(auctions)).Msg("Auctions fetched")

	return m.summarizer.Summarize(auctions), nil
}

// Run executes cycles and returns the process exit code. With interval <= 0
// it runs one cycle and returns ExitFailure if that cycle failed. Otherwise
// it runs a cycle immediately and then every interval until ctx is
// cancelled; failed cycles are logged and the loop continues.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) int {
	if interval <= 0 {
		if _, err := m.RunCycle(ctx); err != nil {
			return ExitFailure
		}
		return ExitOK
	}

	m.log.Info().Dur("interval", interval).Msg("Monitoring started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		m.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	m.log.Info().Msg("Monitoring stopped")
	return ExitOK
}

func failureFields(runID string, err error) map[string]any {
	fields := map[string]any{
		"run_id":  runID,
		"message": err.Error(),
	}

	var domainErr *auction.Error
	if errors.As(err, &domainErr) && domainErr.Kind != nil {
		fields["kind"] = domainErr.Kind.Error()
		if domainErr.StatusCode != 0 {
			fields["statusCode"] = domainErr.StatusCode
		}
	}
	return fields
}

func formatFigure(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// GuardLock adapts a runguard.Guard to CycleLock.
func GuardLock(g *runguard.Guard) CycleLock {
	return guardLock{guard: g}
}

type guardLock struct {
	guard *runguard.Guard
}

func (l guardLock) Lock(ctx context.Context) (func(context.Context) error, error) {
	lease, err := l.guard.Acquire(ctx)
	if errors.Is(err, runguard.ErrHeld) {
		return nil, fmt.Errorf("%w: %w", ErrCycleLocked, err)
	}
	if err != nil {
		return nil, err
	}
	return lease.Release, nil
}
