package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

type stubScanner struct {
	mu       sync.Mutex
	findings []domain.Anomaly
	err      error
	calls    int
}

func (s *stubScanner) ScanAll() ([]domain.Anomaly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.findings, s.err
}

func (s *stubScanner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type captureSink struct {
	mu        sync.Mutex
	anomalies []domain.Anomaly
}

func (c *captureSink) TransactionRecorded(domain.LedgerEntry, int64) {}
func (c *captureSink) ValidationWarning(string, string)              {}
func (c *captureSink) Notify(domain.Notification)                    {}
func (c *captureSink) AnomalyFlagged(a domain.Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anomalies = append(c.anomalies, a)
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.anomalies)
}

func TestRunOnce_ForwardsFindings(t *testing.T) {
	scanner := &stubScanner{findings: []domain.Anomaly{
		{Type: domain.AnomalyEconomy, Severity: domain.SevHigh, Message: "coin spike"},
		{Type: domain.AnomalyStore, Severity: domain.SevCritical, Message: "redemption burst"},
	}}
	sink := &captureSink{}
	s := New(DefaultConfig(), scanner, sink)

	findings, err := s.RunOnce()
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(findings))
	}
	if sink.count() != 2 {
		t.Errorf("sink received %d, want 2", sink.count())
	}

	sweeps, total := s.Stats()
	if sweeps != 1 || total != 2 {
		t.Errorf("stats = (%d, %d), want (1, 2)", sweeps, total)
	}
}

func TestRunOnce_ScanError(t *testing.T) {
	scanner := &stubScanner{err: errors.New("db closed")}
	s := New(DefaultConfig(), scanner, nil)

	if _, err := s.RunOnce(); err == nil {
		t.Error("expected scan error to propagate")
	}
	if sweeps, _ := s.Stats(); sweeps != 0 {
		t.Errorf("sweeps = %d, want 0 (failed sweep not counted)", sweeps)
	}
}

func TestStartStop_RunsOnTicker(t *testing.T) {
	scanner := &stubScanner{}
	s := New(Config{Interval: 5 * time.Millisecond}, scanner, nil)

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	if scanner.callCount() == 0 {
		t.Error("expected at least one sweep while running")
	}

	after := scanner.callCount()
	time.Sleep(20 * time.Millisecond)
	if scanner.callCount() != after {
		t.Error("sweeps continued after Stop")
	}
}

func TestStart_Twice(t *testing.T) {
	scanner := &stubScanner{}
	s := New(Config{Interval: time.Hour}, scanner, nil)

	s.Start(context.Background())
	s.Start(context.Background()) // No-op
	s.Stop()
	s.Stop() // Also a no-op
}
