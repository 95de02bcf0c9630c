package evaluator

import (
	"regexp"
	"strings"
)

// Risk factor weights, summing to 1.0.
const (
	confidenceWeight  = 0.25
	specificityWeight = 0.20
	consistencyWeight = 0.30
	sourceWeight      = 0.25
)

var hedgingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(might|may|could|possibly|perhaps|maybe|likely|probably)\b`),
	regexp.MustCompile(`(?i)\b(i think|i believe|in my opinion|it seems|it appears)\b`),
	regexp.MustCompile(`(?i)\b(generally|typically|usually|often|sometimes)\b`),
}

var strongClaimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(definitely|certainly|always|never|must|guaranteed)\b`),
	regexp.MustCompile(`\b(\d{1,2}%|\d+\.\d+%)`),
	regexp.MustCompile(`(?i)\b(in \d{4}|on [a-z]+ \d{1,2})\b`),
	regexp.MustCompile(`(?i)(\$[\d,]+|\b\d+ dollars\b)`),
}

var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(according to|based on|research shows|studies indicate)\b`),
	regexp.MustCompile(`(?i)\b(source:|reference:|citation:)`),
	regexp.MustCompile(`(?i)\b(published in|reported by|stated by)\b`),
}

var contradictionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(however|but|although|yet|contrary to|on the other hand)\b`),
}

// hallucinationRisk estimates how likely a response contains unsupported
// content, on a 0-100 scale where higher means riskier. It combines four
// text signals: confidence calibration, claim specificity, internal
// consistency and source attribution.
func hallucinationRisk(text string) float64 {
	return clamp(confidenceWeight*confidenceRisk(text) +
		specificityWeight*specificityRisk(text) +
		consistencyWeight*consistencyRisk(text) +
		sourceWeight*sourceRisk(text))
}

func countPatterns(text string, patterns []*regexp.Regexp) int {
	count := 0
	lower := strings.ToLower(text)
	for _, p := range patterns {
		count += len(p.FindAllString(lower, -1))
	}
	return count
}

// confidenceRisk: hedging language lowers risk, assertions without any
// hedging raise it.
func confidenceRisk(text string) float64 {
	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return 50.0
	}
	hedgingPer100 := float64(countPatterns(text, hedgingPatterns)) / (float64(wordCount) / 100)
	switch {
	case hedgingPer100 >= 3.0:
		return 20.0
	case hedgingPer100 >= 1.5:
		return 40.0
	case hedgingPer100 >= 0.5:
		return 60.0
	default:
		return 80.0
	}
}

// specificityRisk: exact figures, dates and amounts without matching
// source attribution are red flags.
func specificityRisk(text string) float64 {
	strongClaims := countPatterns(text, strongClaimPatterns)
	sources := countPatterns(text, sourcePatterns)
	if strongClaims == 0 {
		return 30.0
	}
	switch {
	case sources >= strongClaims:
		return 25.0
	case float64(sources) >= float64(strongClaims)*0.5:
		return 45.0
	default:
		risk := 50.0 + float64(strongClaims)*10
		if risk > 90.0 {
			risk = 90.0
		}
		return risk
	}
}

// consistencyRisk: a few contrast markers read as nuance, many read as
// self-contradiction.
func consistencyRisk(text string) float64 {
	if len(splitSentences(text)) < 2 {
		return 30.0
	}
	contradictions := countPatterns(text, contradictionPatterns)
	switch {
	case contradictions == 0:
		return 35.0
	case contradictions <= 2:
		return 45.0
	default:
		risk := 50.0 + float64(contradictions)*15
		if risk > 85.0 {
			risk = 85.0
		}
		return risk
	}
}

// sourceRisk: longer factual answers are expected to cite something.
func sourceRisk(text string) float64 {
	wordCount := len(strings.Fields(text))
	if wordCount < 50 {
		return 40.0
	}
	density := float64(countPatterns(text, sourcePatterns)) / float64(wordCount) * 100
	switch {
	case density >= 2.0:
		return 20.0
	case density >= 1.0:
		return 35.0
	case density >= 0.5:
		return 55.0
	default:
		return 75.0
	}
}
