// Package analyzer implements the resilient analysis invoker. It wraps one
// opaque remote classification call with retry, exponential backoff, and
// one-way model-tier degradation, and validates the remote response before
// any other component sees it.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/cenkalti/backoff/v5"

	"github.com/tarunvipparti/DFS/internal/config"
)

// Classifier is the opaque forensic inference collaborator: one artifact in,
// one raw textual verdict out. Implementations must be safe for sequential
// reuse but are never called concurrently by a single session or batch run.
type Classifier interface {
	Classify(ctx context.Context, payload []byte, kind MediaKind, tier Tier) (string, error)
}

// System is the public contract for analysis invocations.
type System interface {
	Invoke(ctx context.Context, req Request) (*Verdict, error)
}

// SleepFunc suspends until the duration elapses or the context is cancelled.
// Injectable so tests run without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

type system struct {
	classifier  Classifier
	maxRetries  int
	backoffBase time.Duration
	sleep       SleepFunc
	logger      *slog.Logger
}

// New creates an analysis invoker over the given classifier.
func New(classifier Classifier, cfg *config.AnalyzerConfig, logger *slog.Logger) System {
	return &system{
		classifier:  classifier,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBaseDuration(),
		sleep:       sleepContext,
		logger:      logger.With("system", "analyzer"),
	}
}

// Invoke performs one analysis call with up to maxRetries additional attempts.
// Transient and quota failures are retried with exponential backoff; the first
// retry while on the pro tier downgrades the remainder of the call to flash.
// A response that fails validation is fatal and consumes no retries.
func (s *system) Invoke(ctx context.Context, req Request) (*Verdict, error) {
	tier := initialTier(req.Live)
	attempts := 1 + s.maxRetries
	delays := s.newBackoff()

	var lastKind failureKind
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		req.notify(fmt.Sprintf("Analyzing with %s model (attempt %d of %d)", tier, attempt, attempts))

		content, err := s.classifier.Classify(ctx, req.Payload, req.Kind, tier)
		if err == nil {
			verdict, perr := parseVerdict(content)
			if perr != nil {
				req.notify("Analysis response could not be validated")
				return nil, perr
			}
			verdict.Fingerprint = Fingerprint(req.Payload)
			verdict.ModelTier = tier
			verdict.Attempts = attempt
			return verdict, nil
		}

		kind := classifyFailure(err)
		if kind == failureFatal {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		lastKind = kind
		lastErr = err

		if attempt == attempts {
			break
		}

		if tier == TierPro {
			tier = TierFlash
			s.logger.Warn("degrading model tier for remainder of call", "tier", tier, "error", err)
		}

		wait := delays.NextBackOff()
		s.logger.Debug("retrying analysis", "attempt", attempt, "wait", wait, "error", err)
		req.notify("Analysis attempt failed, retrying")

		if err := s.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	if lastKind == failureQuota {
		return nil, fmt.Errorf("%w: %w", ErrQuotaExceeded, lastErr)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (s *system) newBackoff() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.backoffBase
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.Reset()
	return eb
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type agentClassifier struct {
	tiers map[Tier]gaconfig.AgentConfig
}

// NewClassifier creates the production classifier backed by go-agents vision
// calls, one agent configuration per model tier.
func NewClassifier(cfg *config.AnalyzerConfig) Classifier {
	return &agentClassifier{
		tiers: map[Tier]gaconfig.AgentConfig{
			TierPro:   cfg.Pro,
			TierFlash: cfg.Flash,
		},
	}
}

func (c *agentClassifier) Classify(ctx context.Context, payload []byte, kind MediaKind, tier Tier) (string, error) {
	agentCfg, ok := c.tiers[tier]
	if !ok {
		return "", fmt.Errorf("unknown model tier %q", tier)
	}

	a, err := agent.New(&agentCfg)
	if err != nil {
		return "", fmt.Errorf("create %s agent: %w", tier, err)
	}

	dataURI, err := encoding.EncodeImageDataURI(payload, document.PNG)
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	resp, err := a.Vision(ctx, analysisPrompt, []string{dataURI})
	if err != nil {
		return "", fmt.Errorf("vision call (%s): %w", kind, err)
	}

	return resp.Content(), nil
}
