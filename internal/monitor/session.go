// Package monitor implements the live sampling scheduler. A Session owns one
// monitoring run over a frame source: it samples one frame at a time through
// the analysis invoker, feeds verdicts to the classification policy, and
// paces itself so no two samples ever overlap.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/config"
	"github.com/tarunvipparti/DFS/internal/policy"
)

// State is the session lifecycle state.
type State string

const (
	StateStopped  State = "STOPPED"
	StateStarting State = "STARTING"
	StateRunning  State = "RUNNING"
	StateCooldown State = "COOLDOWN"
)

var ErrAlreadyRunning = errors.New("monitoring session already running")

// MapHTTPStatus maps monitor errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrAlreadyRunning) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Notifier receives fire-and-forget session events. Implementations must not
// block the caller.
type Notifier interface {
	Publish(kind string, payload any)
}

// Status is a point-in-time snapshot of the session for presentation.
type Status struct {
	State          State             `json:"state"`
	Safe           bool              `json:"safe"`
	ThreatScore    int               `json:"threat_score"`
	CooldownActive bool              `json:"cooldown_active"`
	Samples        int               `json:"samples"`
	LastError      string            `json:"last_error,omitempty"`
	LastVerdict    *analyzer.Verdict `json:"last_verdict,omitempty"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	LastSampledAt  *time.Time        `json:"last_sampled_at,omitempty"`
}

// Session is the single live monitoring session. All fields are guarded by
// mu; the lock is released across snapshot acquisition and analysis so Stop
// is effective even while a call is in flight. Stale results are detected by
// the generation counter and the running-state check at the point results
// are applied.
type Session struct {
	mu sync.Mutex

	state      State
	generation uint64

	source FrameSource
	timer  Timer
	ctx    context.Context
	cancel context.CancelFunc

	safe        bool
	threatScore int
	samples     int
	lastError   string
	lastVerdict *analyzer.Verdict
	startedAt   time.Time
	sampledAt   time.Time

	analyzer analyzer.System
	notifier Notifier
	clock    Clock
	logger   *slog.Logger

	safeInterval     time.Duration
	alertedInterval  time.Duration
	notReadyInterval time.Duration
	cooldown         time.Duration
}

// NewSession creates a stopped monitoring session.
func NewSession(
	sys analyzer.System,
	cfg *config.MonitorConfig,
	notifier Notifier,
	clock Clock,
	logger *slog.Logger,
) *Session {
	return &Session{
		state:            StateStopped,
		analyzer:         sys,
		notifier:         notifier,
		clock:            clock,
		logger:           logger.With("system", "monitor"),
		safeInterval:     cfg.SafeIntervalDuration(),
		alertedInterval:  cfg.AlertedIntervalDuration(),
		notReadyInterval: cfg.NotReadyIntervalDuration(),
		cooldown:         cfg.CooldownDuration(),
	}
}

// Start acquires the frame source and begins sampling immediately. Fails if
// a session is already active.
func (s *Session) Start(source FrameSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrAlreadyRunning
	}

	s.state = StateStarting
	s.source = source
	s.generation++
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.safe = true
	s.threatScore = 0
	s.samples = 0
	s.lastError = ""
	s.lastVerdict = nil
	s.startedAt = time.Now()

	s.state = StateRunning
	s.scheduleLocked(0)

	s.logger.Info("monitoring session started")
	s.notifier.Publish("monitor.started", s.statusLocked())
	return nil
}

// Stop ends the session immediately and idempotently. Any pending cycle is
// cancelled and any in-flight analysis result is discarded on arrival.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return
	}
	s.stopLocked("stopped by request")
}

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	status := Status{
		State:          s.state,
		Safe:           s.safe,
		ThreatScore:    s.threatScore,
		CooldownActive: s.state == StateCooldown,
		Samples:        s.samples,
		LastError:      s.lastError,
		LastVerdict:    s.lastVerdict,
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		status.StartedAt = &t
	}
	if !s.sampledAt.IsZero() {
		t := s.sampledAt
		status.LastSampledAt = &t
	}
	return status
}

func (s *Session) stopLocked(reason string) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("frame source close failed", "error", err)
		}
		s.source = nil
	}

	s.generation++
	s.state = StateStopped

	s.logger.Info("monitoring session stopped", "reason", reason)
	s.notifier.Publish("monitor.stopped", map[string]string{"reason": reason})
}

func (s *Session) scheduleLocked(d time.Duration) {
	gen := s.generation
	s.timer = s.clock.AfterFunc(d, func() { s.cycle(gen) })
}

// cycle performs one sample: snapshot, analyze, decide, reschedule. The lock
// is dropped around the blocking calls; the generation and state are
// re-checked before any result is applied.
func (s *Session) cycle(gen uint64) {
	s.mu.Lock()
	if s.state != StateRunning || gen != s.generation {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	source := s.source
	s.mu.Unlock()

	frame, err := source.Snapshot(ctx)
	if err != nil {
		s.applySnapshotFailure(gen, err)
		return
	}

	verdict, err := s.analyzer.Invoke(ctx, analyzer.Request{
		Payload: frame,
		Kind:    analyzer.MediaVideoFrame,
		Live:    true,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || gen != s.generation {
		// session stopped while the call was in flight
		return
	}

	s.samples++
	s.sampledAt = time.Now()

	if err != nil {
		s.applyInvokeFailureLocked(err)
		return
	}

	s.lastError = ""
	s.lastVerdict = verdict

	decision := policy.Decide(policy.Prior{Safe: s.safe, Score: 100 - s.threatScore}, verdict)
	s.threatScore = decision.ThreatScore
	s.safe = decision.Safe

	if decision.Alert {
		s.logger.Warn(
			"alert raised",
			"classification", decision.Classification,
			"threat_score", decision.ThreatScore,
		)
		s.notifier.Publish("monitor.alert", decision)
	}
	s.notifier.Publish("monitor.sample", s.statusLocked())

	s.scheduleLocked(s.nextIntervalLocked())
}

func (s *Session) applySnapshotFailure(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || gen != s.generation {
		return
	}

	if errors.Is(err, ErrSourceLost) {
		s.logger.Error("frame source lost, ending session", "error", err)
		s.stopLocked("frame source lost")
		return
	}

	// not ready yet: retry shortly without counting a failure
	s.scheduleLocked(s.notReadyInterval)
}

func (s *Session) applyInvokeFailureLocked(err error) {
	s.lastError = err.Error()

	if errors.Is(err, analyzer.ErrQuotaExceeded) {
		s.enterCooldownLocked()
		return
	}

	// individual sample failures never end the session
	s.logger.Warn("sample analysis failed", "error", err)
	s.scheduleLocked(s.nextIntervalLocked())
}

// enterCooldownLocked suspends sampling for the cooldown window. A cooldown
// already in progress is never restarted.
func (s *Session) enterCooldownLocked() {
	if s.state == StateCooldown {
		return
	}

	s.state = StateCooldown
	s.logger.Warn("quota exhausted, entering cooldown", "cooldown", s.cooldown)
	s.notifier.Publish("monitor.cooldown", map[string]any{"seconds": s.cooldown.Seconds()})

	gen := s.generation
	s.timer = s.clock.AfterFunc(s.cooldown, func() { s.exitCooldown(gen) })
}

func (s *Session) exitCooldown(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCooldown || gen != s.generation {
		return
	}

	s.state = StateRunning
	s.logger.Info("cooldown expired, resuming sampling")
	s.scheduleLocked(0)
}

func (s *Session) nextIntervalLocked() time.Duration {
	if s.safe {
		return s.safeInterval
	}
	return s.alertedInterval
}
