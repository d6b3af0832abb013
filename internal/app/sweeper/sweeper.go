// Package sweeper runs the anomaly detector on a schedule and forwards the
// findings to the event sink.
package sweeper

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// Scanner is the detector surface the sweeper drives.
type Scanner interface {
	ScanAll() ([]domain.Anomaly, error)
}

// Config controls sweep scheduling.
type Config struct {
	Interval time.Duration // Time between sweeps (default: 15m)
}

// DefaultConfig returns the production sweep schedule.
func DefaultConfig() Config {
	return Config{Interval: 15 * time.Minute}
}

// Sweeper periodically scans and reports. Findings are advisory; the sweeper
// never mutates economic state.
type Sweeper struct {
	mu       sync.Mutex
	config   Config
	scanner  Scanner
	sink     domain.EventSink
	sweeps   int64
	findings int64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a sweeper. A nil sink discards findings (they are still
// counted and logged).
func New(cfg Config, scanner Scanner, sink domain.EventSink) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Sweeper{config: cfg, scanner: scanner, sink: sink}
}

// Start launches the sweep loop. It returns immediately; call Stop to halt.
// Starting a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx)
}

// Stop halts the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce performs a single sweep synchronously.
func (s *Sweeper) RunOnce() ([]domain.Anomaly, error) {
	findings, err := s.scanner.ScanAll()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sweeps++
	s.findings += int64(len(findings))
	s.mu.Unlock()

	for _, f := range findings {
		log.Printf("sweeper: [%s/%s] %s", f.Type, f.Severity, f.Message)
		s.sink.AnomalyFlagged(f)
	}
	return findings, nil
}

// Stats returns how many sweeps have run and how many findings they produced.
func (s *Sweeper) Stats() (sweeps, findings int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeps, s.findings
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}
