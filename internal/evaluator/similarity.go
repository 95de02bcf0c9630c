package evaluator

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lowercases, NFC-normalizes and splits text into word tokens.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(norm.NFC.String(text)), -1)
}

// termFreq builds a token frequency vector.
func termFreq(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

// cosine computes cosine similarity between two frequency vectors.
// Returns 0 when either vector is empty.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for tok, av := range a {
		normA += av * av
		if bv, ok := b[tok]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// relevanceScore measures lexical overlap between prompt and response on a
// 0-100 scale. Higher overlap never lowers the score.
func relevanceScore(prompt, response string) float64 {
	sim := cosine(termFreq(tokenize(prompt)), termFreq(tokenize(response)))
	return clamp(sim * 100)
}

// coherenceScore averages similarity between consecutive sentences. A text
// with at most one sentence is assumed coherent.
func coherenceScore(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return 90.0
	}
	var sum float64
	prev := termFreq(tokenize(sentences[0]))
	for _, sent := range sentences[1:] {
		cur := termFreq(tokenize(sent))
		sum += cosine(prev, cur)
		prev = cur
	}
	return clamp(sum / float64(len(sentences)-1) * 100)
}

// splitSentences breaks text on sentence terminators, dropping fragments
// too short to carry meaning. Falls back to the whole text so the result
// is never empty for non-empty input.
func splitSentences(text string) []string {
	replaced := strings.NewReplacer("!", ".", "?", ".").Replace(text)
	var sentences []string
	for _, sent := range strings.Split(replaced, ".") {
		sent = strings.TrimSpace(sent)
		if len(sent) > 10 {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
