package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/config"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire runs the oldest pending timer callback synchronously.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	timer := c.next(t)
	timer.fn()
}

func (c *fakeClock) next(t *testing.T) *fakeTimer {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, timer := range c.timers {
		if !timer.stopped {
			timer.stopped = true
			return timer
		}
	}
	t.Fatal("no pending timer")
	return nil
}

func (c *fakeClock) pendingDelay(t *testing.T) time.Duration {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, timer := range c.timers {
		if !timer.stopped {
			return timer.d
		}
	}
	t.Fatal("no pending timer")
	return 0
}

type fakeSource struct {
	frames []any // []byte or error
	closed bool
}

func (s *fakeSource) Snapshot(context.Context) ([]byte, error) {
	if len(s.frames) == 0 {
		return []byte("frame"), nil
	}
	next := s.frames[0]
	s.frames = s.frames[1:]
	if err, ok := next.(error); ok {
		return nil, err
	}
	return next.([]byte), nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeAnalyzer struct {
	results []any // *analyzer.Verdict or error
	calls   int
}

func (a *fakeAnalyzer) Invoke(_ context.Context, req analyzer.Request) (*analyzer.Verdict, error) {
	a.calls++
	if !req.Live {
		return nil, errors.New("monitor must issue live requests")
	}
	if len(a.results) == 0 {
		return safeVerdict(), nil
	}
	next := a.results[0]
	a.results = a.results[1:]
	if err, ok := next.(error); ok {
		return nil, err
	}
	return next.(*analyzer.Verdict), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(kind string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind)
}

func (n *recordingNotifier) has(kind string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == kind {
			return true
		}
	}
	return false
}

func safeVerdict() *analyzer.Verdict {
	return &analyzer.Verdict{Classification: analyzer.ClassAuthentic, AuthenticityScore: 95}
}

func fakeVerdict() *analyzer.Verdict {
	return &analyzer.Verdict{Classification: analyzer.ClassFake, AuthenticityScore: 12}
}

func testConfig() *config.MonitorConfig {
	return &config.MonitorConfig{
		SafeInterval:     "3s",
		AlertedInterval:  "10s",
		NotReadyInterval: "1s",
		Cooldown:         "30s",
	}
}

func newTestSession(sys analyzer.System) (*Session, *fakeClock, *recordingNotifier) {
	clock := &fakeClock{}
	notifier := &recordingNotifier{}
	session := NewSession(sys, testConfig(), notifier, clock, slog.New(slog.DiscardHandler))
	return session, clock, notifier
}

func TestSessionSamplesAtSafeCadence(t *testing.T) {
	session, clock, _ := newTestSession(&fakeAnalyzer{})

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if d := clock.pendingDelay(t); d != 0 {
		t.Errorf("first sample should be immediate, got delay %v", d)
	}

	clock.fire(t)

	status := session.Status()
	if status.State != StateRunning {
		t.Errorf("expected RUNNING, got %s", status.State)
	}
	if !status.Safe {
		t.Error("expected safe after authentic verdict")
	}
	if status.ThreatScore != 5 {
		t.Errorf("expected threat score 5, got %d", status.ThreatScore)
	}
	if status.Samples != 1 {
		t.Errorf("expected 1 sample, got %d", status.Samples)
	}
	if d := clock.pendingDelay(t); d != 3*time.Second {
		t.Errorf("expected safe cadence 3s, got %v", d)
	}
}

func TestSessionAlertWidensCadence(t *testing.T) {
	session, clock, notifier := newTestSession(&fakeAnalyzer{results: []any{fakeVerdict()}})

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	clock.fire(t)

	status := session.Status()
	if status.Safe {
		t.Error("expected unsafe after FAKE verdict")
	}
	if status.ThreatScore != 88 {
		t.Errorf("expected threat score 88, got %d", status.ThreatScore)
	}
	if !notifier.has("monitor.alert") {
		t.Error("expected alert event")
	}
	if d := clock.pendingDelay(t); d != 10*time.Second {
		t.Errorf("expected alerted cadence 10s, got %v", d)
	}
}

func TestSessionHysteresisAcrossSamples(t *testing.T) {
	sys := &fakeAnalyzer{results: []any{
		fakeVerdict(),
		&analyzer.Verdict{Classification: analyzer.ClassAuthentic, AuthenticityScore: 70},
		&analyzer.Verdict{Classification: analyzer.ClassAuthentic, AuthenticityScore: 80},
	}}
	session, clock, _ := newTestSession(sys)

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	clock.fire(t)
	if session.Status().Safe {
		t.Fatal("FAKE verdict should mark unsafe")
	}

	clock.fire(t)
	if session.Status().Safe {
		t.Error("score 70 should not recover an unsafe session")
	}

	clock.fire(t)
	if !session.Status().Safe {
		t.Error("score 80 should recover the session")
	}
}

func TestSessionNotReadyReschedules(t *testing.T) {
	sys := &fakeAnalyzer{}
	source := &fakeSource{frames: []any{
		fmt.Errorf("%w: warming up", ErrNotReady),
		[]byte("frame"),
	}}
	session, clock, _ := newTestSession(sys)

	if err := session.Start(source); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	clock.fire(t)
	if sys.calls != 0 {
		t.Error("not-ready snapshot must not reach the analyzer")
	}
	if got := session.Status().Samples; got != 0 {
		t.Errorf("not-ready must not count as a sample, got %d", got)
	}
	if d := clock.pendingDelay(t); d != time.Second {
		t.Errorf("expected not-ready retry in 1s, got %v", d)
	}

	clock.fire(t)
	if sys.calls != 1 {
		t.Errorf("expected 1 analysis call after source became ready, got %d", sys.calls)
	}
}

func TestSessionQuotaEntersCooldown(t *testing.T) {
	sys := &fakeAnalyzer{results: []any{analyzer.ErrQuotaExceeded}}
	session, clock, notifier := newTestSession(sys)

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	clock.fire(t)

	status := session.Status()
	if status.State != StateCooldown {
		t.Fatalf("expected COOLDOWN, got %s", status.State)
	}
	if !status.CooldownActive {
		t.Error("expected cooldown indicator")
	}
	if !notifier.has("monitor.cooldown") {
		t.Error("expected cooldown event")
	}
	if d := clock.pendingDelay(t); d != 30*time.Second {
		t.Errorf("expected 30s cooldown, got %v", d)
	}

	// cooldown expiry resumes sampling immediately
	clock.fire(t)
	if got := session.Status().State; got != StateRunning {
		t.Fatalf("expected RUNNING after cooldown, got %s", got)
	}
	if d := clock.pendingDelay(t); d != 0 {
		t.Errorf("expected immediate sample after cooldown, got %v", d)
	}
}

func TestSessionTransientFailureContinues(t *testing.T) {
	sys := &fakeAnalyzer{results: []any{analyzer.ErrUnavailable}}
	session, clock, _ := newTestSession(sys)

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	clock.fire(t)

	status := session.Status()
	if status.State != StateRunning {
		t.Errorf("transient failure must not stop the session, got %s", status.State)
	}
	if status.LastError == "" {
		t.Error("expected last error to be recorded")
	}
	clock.fire(t)
	if got := session.Status().Samples; got != 2 {
		t.Errorf("expected sampling to continue, got %d samples", got)
	}
}

func TestSessionSourceLostStops(t *testing.T) {
	source := &fakeSource{frames: []any{fmt.Errorf("%w: stream closed", ErrSourceLost)}}
	session, clock, _ := newTestSession(&fakeAnalyzer{})

	if err := session.Start(source); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	clock.fire(t)

	if got := session.Status().State; got != StateStopped {
		t.Errorf("expected STOPPED after source loss, got %s", got)
	}
	if !source.closed {
		t.Error("expected frame source to be released")
	}
}

func TestSessionStartWhileRunning(t *testing.T) {
	session, _, _ := newTestSession(&fakeAnalyzer{})

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := session.Start(&fakeSource{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	session, _, _ := newTestSession(&fakeAnalyzer{})

	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	session.Stop()
	session.Stop()

	if got := session.Status().State; got != StateStopped {
		t.Errorf("expected STOPPED, got %s", got)
	}

	// a stopped session can be started again
	if err := session.Start(&fakeSource{}); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (a *blockingAnalyzer) Invoke(context.Context, analyzer.Request) (*analyzer.Verdict, error) {
	close(a.started)
	<-a.release
	return fakeVerdict(), nil
}

func TestSessionStopDiscardsInFlightResult(t *testing.T) {
	sys := &blockingAnalyzer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	source := &fakeSource{}
	session, clock, notifier := newTestSession(sys)

	if err := session.Start(source); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		clock.fire(t)
		close(done)
	}()

	<-sys.started
	session.Stop()
	close(sys.release)
	<-done

	status := session.Status()
	if status.State != StateStopped {
		t.Errorf("expected STOPPED, got %s", status.State)
	}
	if status.Samples != 0 {
		t.Errorf("late result must be discarded, got %d samples", status.Samples)
	}
	if !status.Safe {
		t.Error("late FAKE verdict must not alter session state")
	}
	if notifier.has("monitor.alert") {
		t.Error("late FAKE verdict must not raise an alert")
	}
	if !source.closed {
		t.Error("expected frame source to be released on stop")
	}
}
