package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

const validResponse = `{
	"classification": "AUTHENTIC",
	"authenticityScore": 95,
	"summary": "No manipulation detected.",
	"anomalies": [],
	"metrics": {
		"expressionStability": "Normal",
		"blinkPattern": "Normal",
		"lipSync": "N/A",
		"pixelArtifacts": "Not Detected",
		"audioIntegrity": "N/A"
	},
	"scores": {
		"pixelIntegrity": 92,
		"temporalConsistency": 90,
		"lightingCohesion": 94,
		"biometricSync": 91
	}
}`

type scriptedCall struct {
	response string
	err      error
}

type scriptedClassifier struct {
	calls []scriptedCall
	tiers []Tier
}

func (c *scriptedClassifier) Classify(_ context.Context, _ []byte, _ MediaKind, tier Tier) (string, error) {
	c.tiers = append(c.tiers, tier)
	if len(c.calls) == 0 {
		return "", errors.New("unexpected call")
	}
	call := c.calls[0]
	c.calls = c.calls[1:]
	return call.response, call.err
}

func newTestSystem(c Classifier, maxRetries int) (*system, *[]time.Duration) {
	var slept []time.Duration
	return &system{
		classifier:  c,
		maxRetries:  maxRetries,
		backoffBase: 500 * time.Millisecond,
		sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
		logger: slog.New(slog.DiscardHandler),
	}, &slept
}

func TestInvokeRetriesTransientThenSucceeds(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
		{response: validResponse},
	}}
	sys, slept := newTestSystem(classifier, 2)

	verdict, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame")})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if got := len(classifier.tiers); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if verdict.Classification != ClassAuthentic {
		t.Errorf("expected AUTHENTIC, got %s", verdict.Classification)
	}
	if verdict.AuthenticityScore != 95 {
		t.Errorf("expected score 95, got %d", verdict.AuthenticityScore)
	}
	if len(*slept) != 2 {
		t.Errorf("expected 2 backoff waits, got %d", len(*slept))
	}
	if verdict.Attempts != 3 {
		t.Errorf("expected verdict to record 3 attempts, got %d", verdict.Attempts)
	}
	if verdict.ModelTier != TierFlash {
		t.Errorf("expected degraded tier %s on verdict, got %s", TierFlash, verdict.ModelTier)
	}
}

func TestInvokeExponentialBackoff(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{response: validResponse},
	}}
	sys, slept := newTestSystem(classifier, 2)

	if _, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame")}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	waits := *slept
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(waits))
	}
	if waits[0] != 500*time.Millisecond {
		t.Errorf("expected first wait 500ms, got %v", waits[0])
	}
	if waits[1] != time.Second {
		t.Errorf("expected second wait 1s, got %v", waits[1])
	}
}

func TestInvokeQuotaExhaustion(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("429 resource exhausted")},
		{err: errors.New("429 resource exhausted")},
		{err: errors.New("429 resource exhausted")},
	}}
	sys, _ := newTestSystem(classifier, 2)

	_, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame")})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if got := len(classifier.tiers); got != 3 {
		t.Errorf("expected 1 + retry budget = 3 attempts, got %d", got)
	}
}

func TestInvokeTransientExhaustion(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
	}}
	sys, _ := newTestSystem(classifier, 2)

	_, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame")})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestInvokeDegradesProToFlash(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("service hiccup")},
		{err: errors.New("service hiccup")},
		{response: validResponse},
	}}
	sys, _ := newTestSystem(classifier, 2)

	if _, err := sys.Invoke(context.Background(), Request{Payload: []byte("upload")}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	expected := []Tier{TierPro, TierFlash, TierFlash}
	for i, tier := range classifier.tiers {
		if tier != expected[i] {
			t.Errorf("attempt %d: expected tier %s, got %s", i+1, expected[i], tier)
		}
	}
}

func TestInvokeLiveStartsOnFlash(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{response: validResponse},
	}}
	sys, _ := newTestSystem(classifier, 2)

	if _, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame"), Live: true}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if classifier.tiers[0] != TierFlash {
		t.Errorf("live request should start on flash, got %s", classifier.tiers[0])
	}
}

func TestInvokeMalformedIsFatal(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{response: "definitely not json"},
	}}
	sys, slept := newTestSystem(classifier, 2)

	_, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame")})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if got := len(classifier.tiers); got != 1 {
		t.Errorf("malformed response must not be retried, got %d attempts", got)
	}
	if len(*slept) != 0 {
		t.Errorf("malformed response must not back off, got %d waits", len(*slept))
	}
}

func TestInvokeFatalErrorNotRetried(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("400 invalid argument: unsupported media")},
	}}
	sys, _ := newTestSystem(classifier, 2)

	_, err := sys.Invoke(context.Background(), Request{Payload: []byte("frame")})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if got := len(classifier.tiers); got != 1 {
		t.Errorf("fatal error must not be retried, got %d attempts", got)
	}
}

func TestInvokeProgressSuppressedWhenLive(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{response: validResponse},
	}}
	sys, _ := newTestSystem(classifier, 2)

	var phases []string
	req := Request{
		Payload:  []byte("frame"),
		Live:     true,
		Progress: func(phase string) { phases = append(phases, phase) },
	}

	if _, err := sys.Invoke(context.Background(), req); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(phases) != 0 {
		t.Errorf("live requests must suppress progress, got %v", phases)
	}
}

func TestInvokeProgressReportedForBatch(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{err: errors.New("hiccup")},
		{response: validResponse},
	}}
	sys, _ := newTestSystem(classifier, 2)

	var phases []string
	req := Request{
		Payload:  []byte("upload"),
		Progress: func(phase string) { phases = append(phases, phase) },
	}

	if _, err := sys.Invoke(context.Background(), req); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(phases) < 2 {
		t.Errorf("expected phase notifications for each attempt, got %v", phases)
	}
}

func TestInvokeAttachesFingerprint(t *testing.T) {
	classifier := &scriptedClassifier{calls: []scriptedCall{
		{response: validResponse},
	}}
	sys, _ := newTestSystem(classifier, 0)

	payload := []byte("stable content")
	verdict, err := sys.Invoke(context.Background(), Request{Payload: payload})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if verdict.Fingerprint != Fingerprint(payload) {
		t.Errorf("fingerprint mismatch: %s", verdict.Fingerprint)
	}
}

func TestClassifyFailureMarkers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected failureKind
	}{
		{"http 429", errors.New("status 429: slow down"), failureQuota},
		{"quota text", errors.New("Quota exceeded for model"), failureQuota},
		{"rate limit", errors.New("rate limit reached"), failureQuota},
		{"bad request", errors.New("400 Bad Request"), failureFatal},
		{"invalid argument", errors.New("invalid argument: image too large"), failureFatal},
		{"network", errors.New("dial tcp: connection refused"), failureTransient},
		{"timeout", errors.New("context deadline exceeded"), failureTransient},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyFailure(tc.err); got != tc.expected {
				t.Errorf("classifyFailure(%q) = %d, expected %d", tc.err, got, tc.expected)
			}
		})
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("payload"))
	b := Fingerprint([]byte("payload"))
	if a != b {
		t.Error("fingerprint not deterministic")
	}
	if a == Fingerprint([]byte("other")) {
		t.Error("distinct payloads should not collide")
	}
}

func TestFingerprintBoundedPrefix(t *testing.T) {
	base := make([]byte, fingerprintPrefix)
	for i := range base {
		base[i] = byte(i)
	}

	extended := append(append([]byte{}, base...), []byte("trailing difference")...)
	if Fingerprint(base) != Fingerprint(extended) {
		t.Error("bytes past the prefix bound must not affect the fingerprint")
	}
}

func ExampleFingerprint() {
	fmt.Println(len(Fingerprint([]byte("artifact"))))
	// Output: 64
}
