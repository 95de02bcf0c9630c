package classifier

import (
	"reflect"
	"testing"

	"github.com/arenalab/promptarena/internal"
)

func TestClassify_Domains(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		domain string
	}{
		{"medical", "What treatment does a doctor prescribe for a fever?", "medical"},
		{"legal", "Can my landlord change the contract without a lawyer?", "legal"},
		{"coding", "How do I debug a function with a syntax error in Python?", "coding"},
		{"education", "Explain this concept so a student can understand the theory", "education"},
		{"business", "What marketing strategy grows startup revenue?", "business"},
		{"mental health", "How can therapy help with anxiety and panic attacks?", "mental_health"},
		{"general", "What is the tallest mountain in the world?", "general"},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.prompt)
			if got.Domain != tt.domain {
				t.Errorf("domain = %s, want %s", got.Domain, tt.domain)
			}
		})
	}
}

func TestClassify_GeneralConfidence(t *testing.T) {
	got := New().Classify("Tell me about the weather tomorrow")
	if got.Domain != "general" {
		t.Fatalf("domain = %s, want general", got.Domain)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
	if got.SafetyLevel != internal.SafetySafe {
		t.Errorf("safety = %s, want safe", got.SafetyLevel)
	}
}

func TestClassify_ConfidenceNormalized(t *testing.T) {
	// "code" and "bug" score coding 2; "learn" scores education 1.
	got := New().Classify("I want to learn why my code has a bug")
	if got.Domain != "coding" {
		t.Fatalf("domain = %s, want coding", got.Domain)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Errorf("confidence %v out of range", got.Confidence)
	}
	if got.Confidence >= 1.0 {
		t.Errorf("confidence = %v, expected below 1.0 with cross-domain matches", got.Confidence)
	}
}

func TestClassify_SafetyLevels(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		level  internal.SafetyLevel
	}{
		{"safe general", "What is the capital of France?", internal.SafetySafe},
		{"caution on single medical keyword", "Is coffee bad for my health?", internal.SafetyCaution},
		{"warning on dense medical keywords", "What medication does a doctor prescribe for this infection?", internal.SafetyWarning},
		{"warning on legal liability", "Should I sue my neighbor over the fence?", internal.SafetyWarning},
		{"critical on medical emergency", "I have severe pain in my chest, is this an emergency?", internal.SafetyCritical},
		{"critical on crisis", "I keep thinking about suicide", internal.SafetyCritical},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.prompt)
			if got.SafetyLevel != tt.level {
				t.Errorf("safety = %s, want %s", got.SafetyLevel, tt.level)
			}
		})
	}
}

func TestClassify_SensitiveTypes(t *testing.T) {
	c := New()

	got := c.Classify("My friend took an overdose, what do I do?")
	if !got.IsSensitive || got.SensitiveType != "medical_emergency" {
		t.Errorf("sensitive = %v/%s, want medical_emergency", got.IsSensitive, got.SensitiveType)
	}

	got = c.Classify("Sometimes I want to hurt myself")
	if got.SensitiveType != "mental_health_crisis" {
		t.Errorf("sensitive type = %s, want mental_health_crisis", got.SensitiveType)
	}

	got = c.Classify("What is the capital of France?")
	if got.IsSensitive || got.SensitiveType != "" {
		t.Errorf("expected non-sensitive, got %v/%s", got.IsSensitive, got.SensitiveType)
	}
}

func TestClassify_WarningsGrowWithStrictness(t *testing.T) {
	c := New()

	caution := c.Classify("Is coffee bad for my health?")
	warning := c.Classify("What treatment does a doctor prescribe for this illness?")
	critical := c.Classify("Severe pain and fever after surgery, is this an emergency?")

	if len(caution.Warnings) == 0 {
		t.Error("caution level should carry warnings for a risk domain")
	}
	if len(warning.Warnings) < len(caution.Warnings) {
		t.Errorf("warning level has %d warnings, caution has %d", len(warning.Warnings), len(caution.Warnings))
	}
	if len(critical.Warnings) <= len(warning.Warnings) {
		t.Errorf("critical level has %d warnings, warning has %d", len(critical.Warnings), len(warning.Warnings))
	}
}

func TestClassify_CriticalRecommendations(t *testing.T) {
	got := New().Classify("I want to end my life")
	if got.SafetyLevel != internal.SafetyCritical {
		t.Fatalf("safety = %s, want critical", got.SafetyLevel)
	}
	if len(got.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if got.Recommendations[0] != "Seek immediate professional help" {
		t.Errorf("first recommendation = %q", got.Recommendations[0])
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := New()
	prompt := "What medication treats an infection after surgery?"

	first := c.Classify(prompt)
	for i := 0; i < 5; i++ {
		if got := c.Classify(prompt); !reflect.DeepEqual(got, first) {
			t.Fatalf("classification differs on run %d: %+v vs %+v", i, got, first)
		}
	}
}
