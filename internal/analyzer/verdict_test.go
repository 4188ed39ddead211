package analyzer

import (
	"errors"
	"testing"
)

func TestParseVerdictClampsScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"below range", `{"classification": "FAKE", "authenticityScore": -10}`, 0},
		{"above range", `{"classification": "AUTHENTIC", "authenticityScore": 140}`, 100},
		{"in range", `{"classification": "SUSPICIOUS", "authenticityScore": 57}`, 57},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := parseVerdict(tc.raw)
			if err != nil {
				t.Fatalf("parseVerdict failed: %v", err)
			}
			if v.AuthenticityScore != tc.expected {
				t.Errorf("expected score %d, got %d", tc.expected, v.AuthenticityScore)
			}
		})
	}
}

func TestParseVerdictNeutralDefaults(t *testing.T) {
	v, err := parseVerdict(`{"summary": "partial response"}`)
	if err != nil {
		t.Fatalf("parseVerdict failed: %v", err)
	}

	if v.Classification != ClassSuspicious {
		t.Errorf("missing classification should default to SUSPICIOUS, got %s", v.Classification)
	}
	if v.AuthenticityScore != 50 {
		t.Errorf("missing score should default to 50, got %d", v.AuthenticityScore)
	}
	if v.Metrics.BlinkPattern != "Normal" {
		t.Errorf("missing blinkPattern should default to Normal, got %s", v.Metrics.BlinkPattern)
	}
	if v.Metrics.LipSync != "N/A" {
		t.Errorf("missing lipSync should default to N/A, got %s", v.Metrics.LipSync)
	}
	if v.Metrics.PixelArtifacts != "Not Detected" {
		t.Errorf("missing pixelArtifacts should default to Not Detected, got %s", v.Metrics.PixelArtifacts)
	}
	if v.Scores.PixelIntegrity != 50 {
		t.Errorf("missing pixelIntegrity should default to 50, got %d", v.Scores.PixelIntegrity)
	}
}

func TestParseVerdictRejectsUnknownEnums(t *testing.T) {
	v, err := parseVerdict(`{
		"classification": "PROBABLY_FINE",
		"metrics": {"blinkPattern": "Sideways", "lipSync": "Match"}
	}`)
	if err != nil {
		t.Fatalf("parseVerdict failed: %v", err)
	}

	if v.Classification != ClassSuspicious {
		t.Errorf("unknown classification should fall back to SUSPICIOUS, got %s", v.Classification)
	}
	if v.Metrics.BlinkPattern != "Normal" {
		t.Errorf("unknown blinkPattern should fall back to Normal, got %s", v.Metrics.BlinkPattern)
	}
	if v.Metrics.LipSync != "Match" {
		t.Errorf("valid lipSync should be kept, got %s", v.Metrics.LipSync)
	}
}

func TestParseVerdictMarkdownFence(t *testing.T) {
	fenced := "```json\n{\"classification\": \"FAKE\", \"authenticityScore\": 12}\n```"

	v, err := parseVerdict(fenced)
	if err != nil {
		t.Fatalf("parseVerdict failed: %v", err)
	}
	if v.Classification != ClassFake || v.AuthenticityScore != 12 {
		t.Errorf("unexpected verdict: %+v", v)
	}
}

func TestParseVerdictUnparseableIsFatal(t *testing.T) {
	_, err := parseVerdict("the model had an opinion instead of JSON")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestParseVerdictAnomalies(t *testing.T) {
	v, err := parseVerdict(`{
		"classification": "FAKE",
		"authenticityScore": 20,
		"anomalies": [
			{"label": "blend seam", "category": "facial", "description": "visible boundary along jawline", "confidence": 0.91},
			{"label": "overconfident", "confidence": 1.8}
		]
	}`)
	if err != nil {
		t.Fatalf("parseVerdict failed: %v", err)
	}

	if len(v.Anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(v.Anomalies))
	}
	if v.Anomalies[0].Confidence != 0.91 {
		t.Errorf("expected confidence 0.91, got %v", v.Anomalies[0].Confidence)
	}
	if v.Anomalies[1].Confidence != 1 {
		t.Errorf("confidence should clamp to 1, got %v", v.Anomalies[1].Confidence)
	}
}
