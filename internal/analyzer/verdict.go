package analyzer

import (
	"fmt"

	"github.com/tarunvipparti/DFS/pkg/formatting"
)

// Classification values produced by the forensic classifier.
const (
	ClassAuthentic  = "AUTHENTIC"
	ClassSuspicious = "SUSPICIOUS"
	ClassFake       = "FAKE"
)

// Anomaly describes one forensic irregularity found in an artifact.
type Anomaly struct {
	Label       string  `json:"label"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Metrics is the fixed enum-valued metric group attached to every verdict.
type Metrics struct {
	ExpressionStability string `json:"expressionStability"`
	BlinkPattern        string `json:"blinkPattern"`
	LipSync             string `json:"lipSync"`
	PixelArtifacts      string `json:"pixelArtifacts"`
	AudioIntegrity      string `json:"audioIntegrity"`
}

// Scores is the fixed numeric score group attached to every verdict.
type Scores struct {
	PixelIntegrity      int `json:"pixelIntegrity"`
	TemporalConsistency int `json:"temporalConsistency"`
	LightingCohesion    int `json:"lightingCohesion"`
	BiometricSync       int `json:"biometricSync"`
}

// Verdict is the structured result of one successful analysis invocation.
// AuthenticityScore is always clamped to [0, 100] and every enum field holds
// a known value before the verdict leaves this package. Immutable once
// produced.
type Verdict struct {
	Classification    string    `json:"classification"`
	AuthenticityScore int       `json:"authenticityScore"`
	Summary           string    `json:"summary"`
	Anomalies         []Anomaly `json:"anomalies"`
	Metrics           Metrics   `json:"metrics"`
	Scores            Scores    `json:"scores"`
	Fingerprint       string    `json:"fingerprint"`
	ModelTier         Tier      `json:"modelTier"`
	Attempts          int       `json:"attempts"`
}

// rawVerdict mirrors the classifier's JSON shape with optional fields so
// normalization can distinguish absent values from zero values.
type rawVerdict struct {
	Classification    *string      `json:"classification"`
	AuthenticityScore *int         `json:"authenticityScore"`
	Summary           *string      `json:"summary"`
	Anomalies         []rawAnomaly `json:"anomalies"`
	Metrics           *rawMetrics  `json:"metrics"`
	Scores            *rawScores   `json:"scores"`
}

type rawAnomaly struct {
	Label       *string  `json:"label"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Confidence  *float64 `json:"confidence"`
}

type rawMetrics struct {
	ExpressionStability *string `json:"expressionStability"`
	BlinkPattern        *string `json:"blinkPattern"`
	LipSync             *string `json:"lipSync"`
	PixelArtifacts      *string `json:"pixelArtifacts"`
	AudioIntegrity      *string `json:"audioIntegrity"`
}

type rawScores struct {
	PixelIntegrity      *int `json:"pixelIntegrity"`
	TemporalConsistency *int `json:"temporalConsistency"`
	LightingCohesion    *int `json:"lightingCohesion"`
	BiometricSync       *int `json:"biometricSync"`
}

// Neutral defaults applied when a successfully parsed verdict is missing
// required fields. A response that fails to parse at all is never defaulted.
const (
	defaultScore          = 50
	defaultClassification = ClassSuspicious
)

// parseVerdict validates and normalizes a raw classifier response. A response
// that does not parse as JSON is fatal (ErrMalformed). A parsed response with
// missing fields is filled with neutral defaults as a last resort.
func parseVerdict(content string) (*Verdict, error) {
	raw, err := formatting.Parse[rawVerdict](content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return normalize(raw), nil
}

func normalize(raw rawVerdict) *Verdict {
	v := &Verdict{
		Classification:    defaultClassification,
		AuthenticityScore: defaultScore,
		Metrics: Metrics{
			ExpressionStability: "Normal",
			BlinkPattern:        "Normal",
			LipSync:             "N/A",
			PixelArtifacts:      "Not Detected",
			AudioIntegrity:      "Normal",
		},
		Scores: Scores{
			PixelIntegrity:      defaultScore,
			TemporalConsistency: defaultScore,
			LightingCohesion:    defaultScore,
			BiometricSync:       defaultScore,
		},
	}

	if raw.Classification != nil {
		switch *raw.Classification {
		case ClassAuthentic, ClassSuspicious, ClassFake:
			v.Classification = *raw.Classification
		}
	}
	if raw.AuthenticityScore != nil {
		v.AuthenticityScore = clampScore(*raw.AuthenticityScore)
	}
	if raw.Summary != nil {
		v.Summary = *raw.Summary
	}

	for _, a := range raw.Anomalies {
		anomaly := Anomaly{}
		if a.Label != nil {
			anomaly.Label = *a.Label
		}
		if a.Category != nil {
			anomaly.Category = *a.Category
		}
		if a.Description != nil {
			anomaly.Description = *a.Description
		}
		if a.Confidence != nil {
			anomaly.Confidence = clampConfidence(*a.Confidence)
		}
		v.Anomalies = append(v.Anomalies, anomaly)
	}

	if raw.Metrics != nil {
		applyEnum(&v.Metrics.ExpressionStability, raw.Metrics.ExpressionStability, "Normal", "Abnormal")
		applyEnum(&v.Metrics.BlinkPattern, raw.Metrics.BlinkPattern, "Normal", "Abnormal")
		applyEnum(&v.Metrics.LipSync, raw.Metrics.LipSync, "Match", "Mismatch", "N/A")
		applyEnum(&v.Metrics.PixelArtifacts, raw.Metrics.PixelArtifacts, "Detected", "Not Detected")
		applyEnum(&v.Metrics.AudioIntegrity, raw.Metrics.AudioIntegrity, "Normal", "Abnormal", "N/A")
	}

	if raw.Scores != nil {
		applyScore(&v.Scores.PixelIntegrity, raw.Scores.PixelIntegrity)
		applyScore(&v.Scores.TemporalConsistency, raw.Scores.TemporalConsistency)
		applyScore(&v.Scores.LightingCohesion, raw.Scores.LightingCohesion)
		applyScore(&v.Scores.BiometricSync, raw.Scores.BiometricSync)
	}

	return v
}

func applyEnum(dst *string, src *string, allowed ...string) {
	if src == nil {
		return
	}
	for _, a := range allowed {
		if *src == a {
			*dst = a
			return
		}
	}
}

func applyScore(dst *int, src *int) {
	if src == nil {
		return
	}
	*dst = clampScore(*src)
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
