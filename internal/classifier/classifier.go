package classifier

import (
	"regexp"
	"strings"

	"github.com/arenalab/promptarena/internal"
)

// domainOrder fixes the iteration order so ties resolve deterministically.
var domainOrder = []string{"medical", "legal", "coding", "education", "business", "mental_health"}

var domainKeywords = map[string][]string{
	"medical": {
		"symptom", "disease", "doctor", "medicine", "treatment", "diagnosis",
		"health", "illness", "pain", "infection", "prescription", "surgery",
		"hospital", "clinic", "drug", "medication", "fever", "cancer", "diabetes",
	},
	"legal": {
		"law", "legal", "court", "lawyer", "attorney", "contract", "lawsuit",
		"rights", "judge", "criminal", "civil", "statute", "regulation",
		"compliance", "liable", "liability", "plaintiff", "defendant",
	},
	"coding": {
		"code", "programming", "function", "variable", "bug", "debug", "algorithm",
		"python", "javascript", "java", "api", "database", "software", "developer",
		"compile", "syntax", "error", "class", "method", "array",
	},
	"education": {
		"learn", "study", "student", "teacher", "school", "university", "course",
		"lesson", "homework", "exam", "test", "grade", "education", "tutorial",
		"explain", "understand", "concept", "theory",
	},
	"business": {
		"business", "company", "market", "sales", "profit", "revenue", "strategy",
		"management", "customer", "product", "service", "invest", "finance",
		"entrepreneur", "startup", "marketing", "brand",
	},
	"mental_health": {
		"anxiety", "depression", "stress", "therapy", "counseling", "mental",
		"emotion", "feeling", "suicide", "self-harm", "trauma", "ptsd",
		"psychological", "psychiatrist", "mood", "panic",
	},
}

// riskDomains are domains whose answers need professional verification.
var riskDomains = map[string]bool{
	"medical":       true,
	"legal":         true,
	"mental_health": true,
}

type sensitiveRule struct {
	name     string
	patterns []*regexp.Regexp
}

// sensitiveRules are checked in order; the first match wins.
var sensitiveRules = []sensitiveRule{
	{
		name: "medical_emergency",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(emergency|urgent|severe pain|chest pain|cant breathe)\b`),
			regexp.MustCompile(`(?i)\b(overdose|poisoning|bleeding heavily)\b`),
		},
	},
	{
		name: "mental_health_crisis",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(suicide|kill myself|end my life|want to die)\b`),
			regexp.MustCompile(`(?i)\b(self-harm|cutting myself|hurt myself)\b`),
		},
	},
	{
		name: "legal_liability",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sue|lawsuit|legal action|court case)\b`),
		},
	},
}

// Classifier labels a prompt's subject domain and safety level from
// keyword and pattern signals alone. Classification is a pure function of
// the prompt text.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(prompt string) internal.DomainClassification {
	lower := strings.ToLower(prompt)

	scores := make(map[string]int, len(domainOrder))
	topDomain := ""
	topScore := 0
	total := 0
	for _, domain := range domainOrder {
		score := 0
		for _, kw := range domainKeywords[domain] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		scores[domain] = score
		total += score
		if score > topScore {
			topDomain = domain
			topScore = score
		}
	}

	domain := "general"
	confidence := 1.0
	if topScore > 0 {
		domain = topDomain
		confidence = float64(topScore) / float64(total)
	}

	sensitiveType := checkSensitive(lower)
	level := safetyLevel(domain, topScore, sensitiveType)

	return internal.DomainClassification{
		Domain:          domain,
		Confidence:      confidence,
		IsSensitive:     sensitiveType != "",
		SensitiveType:   sensitiveType,
		SafetyLevel:     level,
		Warnings:        warnings(domain, sensitiveType, level),
		Recommendations: recommendations(domain, level),
	}
}

func checkSensitive(text string) string {
	for _, rule := range sensitiveRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(text) {
				return rule.name
			}
		}
	}
	return ""
}

// safetyLevel escalates with explicit risk signals: crisis or emergency
// patterns are critical, other sensitive matches and keyword-dense risk
// domains are warning, a risk domain on a single keyword is caution.
func safetyLevel(domain string, topScore int, sensitiveType string) internal.SafetyLevel {
	switch sensitiveType {
	case "medical_emergency", "mental_health_crisis":
		return internal.SafetyCritical
	case "legal_liability":
		return internal.SafetyWarning
	}
	if riskDomains[domain] {
		if topScore >= 2 {
			return internal.SafetyWarning
		}
		return internal.SafetyCaution
	}
	return internal.SafetySafe
}

// warnings builds the list additively from mild to strict, so a stricter
// level always carries at least the warnings of a milder one.
func warnings(domain, sensitiveType string, level internal.SafetyLevel) []string {
	var out []string

	switch domain {
	case "medical":
		out = append(out,
			"Medical information should be verified with healthcare professionals",
			"AI cannot diagnose or prescribe treatment")
	case "legal":
		out = append(out,
			"Legal information is not legal advice",
			"Consult a licensed attorney for legal matters")
	case "mental_health":
		out = append(out,
			"AI cannot replace professional mental health care",
			"Seek help from licensed mental health professionals")
	}

	if sensitiveType == "legal_liability" {
		out = append(out, "Legal disputes require advice from a licensed attorney")
	}

	if level == internal.SafetyCritical {
		switch sensitiveType {
		case "medical_emergency":
			out = append(out,
				"MEDICAL EMERGENCY: Call emergency services immediately",
				"Do not rely on AI for emergency medical situations")
		case "mental_health_crisis":
			out = append(out,
				"CRISIS DETECTED: Contact crisis hotline immediately",
				"National Suicide Prevention Lifeline: 988",
				"AI cannot provide crisis intervention")
		}
	}

	return out
}

func recommendations(domain string, level internal.SafetyLevel) []string {
	switch level {
	case internal.SafetyCritical:
		return []string{
			"Seek immediate professional help",
			"Do not delay - contact emergency services",
		}
	case internal.SafetyWarning, internal.SafetyCaution:
		switch domain {
		case "medical":
			return []string{
				"Consult with a doctor or healthcare provider",
				"Use AI response as general information only",
			}
		case "legal":
			return []string{
				"Consult with a licensed attorney",
				"Legal situations vary by jurisdiction",
			}
		case "mental_health":
			return []string{
				"Speak with a licensed therapist or counselor",
				"Use crisis hotlines if in immediate distress",
			}
		}
	}
	return []string{
		"AI responses are helpful but may contain errors",
		"Verify important information from reliable sources",
	}
}
