// Package policy turns analysis verdicts into classification and alert
// decisions. Decide is pure and deterministic; it performs no I/O and is the
// single authoritative alerting rule for both the live and batch paths.
package policy

import "github.com/tarunvipparti/DFS/internal/analyzer"

const (
	// alertScoreThreshold triggers an alert for SUSPICIOUS verdicts scoring
	// below it.
	alertScoreThreshold = 60

	// safeRecoveryThreshold is the hysteresis bound: an alerted session is
	// only marked safe again once a score rises above it, preventing
	// classification flapping around the alert boundary.
	safeRecoveryThreshold = 72
)

// Prior is the session state carried into a decision.
type Prior struct {
	Safe  bool
	Score int
}

// Decision is the outcome of evaluating one verdict against the prior state.
// ThreatScore is the display-oriented inverse of the authenticity score and
// is never persisted as authoritative.
type Decision struct {
	Classification string
	ThreatScore    int
	Alert          bool
	Safe           bool
}

// Decide evaluates a verdict against the prior session state. An alert fires
// when the verdict is FAKE, or SUSPICIOUS with an authenticity score below 60.
// Once unsafe, the session recovers to safe only on a score above the
// hysteresis threshold.
func Decide(prior Prior, verdict *analyzer.Verdict) Decision {
	score := verdict.AuthenticityScore
	alert := verdict.Classification == analyzer.ClassFake ||
		(verdict.Classification == analyzer.ClassSuspicious && score < alertScoreThreshold)

	safe := !alert
	if !prior.Safe && score <= safeRecoveryThreshold {
		safe = false
	}

	return Decision{
		Classification: verdict.Classification,
		ThreatScore:    100 - score,
		Alert:          alert,
		Safe:           safe,
	}
}
