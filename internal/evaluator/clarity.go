package evaluator

import (
	"math"
	"regexp"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`\w+`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	listPattern     = regexp.MustCompile(`(^|\n)[•\-*]\s`)
	numberedPattern = regexp.MustCompile(`(^|\n)\d+\.\s`)
	headerPattern   = regexp.MustCompile(`(^|\n)#{1,3}\s`)
	sectionPattern  = regexp.MustCompile(`(^|\n)[A-Z][^.!?]*:(\n|$)`)
)

// clarityScore rates readability on a 0-100 scale from four signals:
// Flesch reading ease, average sentence length, vocabulary complexity and
// structural formatting. Empty text scores 0.
func clarityScore(text string) float64 {
	words := wordPattern.FindAllString(text, -1)
	wordCount := len(words)
	if wordCount == 0 {
		return 0
	}

	sentenceCount := countSentences(text)
	syllableCount := 0
	complexCount := 0
	for _, word := range words {
		syl := countSyllables(strings.ToLower(word))
		syllableCount += syl
		if len(word) > 6 && syl >= 3 {
			complexCount++
		}
	}
	if syllableCount == 0 {
		syllableCount = 1
	}

	flesch := fleschReadingEase(wordCount, sentenceCount, syllableCount)
	avgLength := float64(wordCount) / float64(sentenceCount)
	complexityRatio := float64(complexCount) / float64(wordCount)

	return 0.35*readabilitySubscore(flesch) +
		0.25*sentenceLengthSubscore(avgLength) +
		0.20*complexitySubscore(complexityRatio) +
		0.20*structureSubscore(text)
}

// fleschReadingEase: 206.835 - 1.015(words/sentences) - 84.6(syllables/words),
// clamped to [0,100].
func fleschReadingEase(words, sentences, syllables int) float64 {
	score := 206.835 - 1.015*(float64(words)/float64(sentences)) - 84.6*(float64(syllables)/float64(words))
	return clamp(score)
}

func countSentences(text string) int {
	count := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// countSyllables estimates syllables in a word by counting vowel groups
// with a silent-e adjustment. Every word counts at least one.
func countSyllables(word string) int {
	syllables := 0
	previousWasVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !previousWasVowel {
			syllables++
		}
		previousWasVowel = isVowel
	}
	if strings.HasSuffix(word, "e") {
		syllables--
	}
	if syllables < 1 {
		return 1
	}
	return syllables
}

// readabilitySubscore rewards the standard reading band (Flesch 60-70).
func readabilitySubscore(flesch float64) float64 {
	switch {
	case flesch >= 60 && flesch <= 70:
		return 100.0
	case flesch >= 50 && flesch < 60:
		return 90.0
	case flesch > 70 && flesch <= 80:
		return 90.0
	case flesch >= 40 && flesch < 50:
		return 75.0
	case flesch > 80 && flesch <= 90:
		return 80.0
	case flesch >= 30 && flesch < 40:
		return 60.0
	default:
		return 50.0
	}
}

// sentenceLengthSubscore rewards 15-20 words per sentence.
func sentenceLengthSubscore(avgLength float64) float64 {
	switch {
	case avgLength >= 15 && avgLength <= 20:
		return 100.0
	case avgLength >= 12 && avgLength < 15:
		return 90.0
	case avgLength > 20 && avgLength <= 25:
		return 85.0
	case avgLength >= 10 && avgLength < 12:
		return 75.0
	case avgLength > 25 && avgLength <= 30:
		return 70.0
	default:
		return math.Max(40.0, 100.0-math.Abs(avgLength-17.5)*3)
	}
}

// complexitySubscore rewards 10-20% complex words.
func complexitySubscore(ratio float64) float64 {
	switch {
	case ratio >= 0.10 && ratio <= 0.20:
		return 100.0
	case ratio >= 0.05 && ratio < 0.10:
		return 85.0
	case ratio > 0.20 && ratio <= 0.30:
		return 80.0
	case ratio < 0.05:
		return 75.0
	default:
		return math.Max(40.0, 100.0-(ratio-0.20)*200)
	}
}

// structureSubscore credits paragraph breaks, lists and section headers.
func structureSubscore(text string) float64 {
	score := 70.0
	if strings.Contains(text, "\n\n") {
		score += 10.0
	}
	if listPattern.MatchString(text) || numberedPattern.MatchString(text) {
		score += 10.0
	}
	if headerPattern.MatchString(text) || sectionPattern.MatchString(text) {
		score += 10.0
	}
	return math.Min(100.0, score)
}
