package policy

import (
	"testing"

	"github.com/tarunvipparti/DFS/internal/analyzer"
)

func verdict(classification string, score int) *analyzer.Verdict {
	return &analyzer.Verdict{
		Classification:    classification,
		AuthenticityScore: score,
	}
}

func TestDecideAlertRule(t *testing.T) {
	tests := []struct {
		name           string
		classification string
		score          int
		alert          bool
	}{
		{"fake always alerts", analyzer.ClassFake, 99, true},
		{"fake low score alerts", analyzer.ClassFake, 12, true},
		{"suspicious below threshold alerts", analyzer.ClassSuspicious, 59, true},
		{"suspicious at threshold passes", analyzer.ClassSuspicious, 60, false},
		{"suspicious above threshold passes", analyzer.ClassSuspicious, 85, false},
		{"authentic never alerts", analyzer.ClassAuthentic, 5, false},
		{"authentic high score passes", analyzer.ClassAuthentic, 95, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(Prior{Safe: true}, verdict(tc.classification, tc.score))
			if d.Alert != tc.alert {
				t.Errorf("Decide(%s, %d).Alert = %v, expected %v", tc.classification, tc.score, d.Alert, tc.alert)
			}
		})
	}
}

func TestDecideThreatScore(t *testing.T) {
	d := Decide(Prior{Safe: true}, verdict(analyzer.ClassFake, 12))
	if d.ThreatScore != 88 {
		t.Errorf("expected threat score 88, got %d", d.ThreatScore)
	}
	if !d.Alert {
		t.Error("expected alert for FAKE at score 12")
	}

	d = Decide(Prior{Safe: true}, verdict(analyzer.ClassAuthentic, 95))
	if d.ThreatScore != 5 {
		t.Errorf("expected threat score 5, got %d", d.ThreatScore)
	}
	if d.Alert {
		t.Error("expected no alert for AUTHENTIC at score 95")
	}
}

func TestDecideHysteresis(t *testing.T) {
	// alert drops the session out of safe
	d := Decide(Prior{Safe: true, Score: 90}, verdict(analyzer.ClassFake, 20))
	if d.Safe {
		t.Fatal("alert must mark the session unsafe")
	}

	// scores at or below the recovery threshold keep it unsafe
	for _, score := range []int{40, 60, 72} {
		d = Decide(Prior{Safe: false, Score: 20}, verdict(analyzer.ClassAuthentic, score))
		if d.Safe {
			t.Errorf("score %d should not recover an unsafe session", score)
		}
	}

	// the first score above the threshold recovers
	d = Decide(Prior{Safe: false, Score: 72}, verdict(analyzer.ClassAuthentic, 73))
	if !d.Safe {
		t.Error("score 73 should recover an unsafe session")
	}
}

func TestDecideRecoveryBlockedWhileAlerting(t *testing.T) {
	// a high score on a FAKE verdict still alerts and stays unsafe
	d := Decide(Prior{Safe: false, Score: 10}, verdict(analyzer.ClassFake, 90))
	if !d.Alert {
		t.Error("FAKE must alert regardless of score")
	}
	if d.Safe {
		t.Error("an alerting verdict can never mark the session safe")
	}
}

func TestDecideIsPure(t *testing.T) {
	v := verdict(analyzer.ClassSuspicious, 55)
	prior := Prior{Safe: true, Score: 80}

	first := Decide(prior, v)
	second := Decide(prior, v)

	if first != second {
		t.Error("Decide must be deterministic for identical inputs")
	}
	if v.AuthenticityScore != 55 {
		t.Error("Decide must not mutate the verdict")
	}
}
