package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/arenalab/promptarena/internal"
)

// Aggregate ranks a session's evaluations and assembles the comparison
// payload. Evaluations are sorted by trust score descending, ties broken
// by ascending latency then ascending model id, and assigned contiguous
// ranks starting at 1; rank 1 alone gets is_best. Failed responses carry
// no evaluation but still contribute to the cost and latency totals.
//
// The evaluations slice is mutated in place (rank and is_best fields).
func Aggregate(session internal.PromptSession, responses []internal.ModelResponse, evaluations []internal.EvaluationResult, classification *internal.DomainClassification) (internal.ComparisonResult, error) {
	if classification == nil {
		return internal.ComparisonResult{}, &internal.AggregationError{Reason: "missing domain classification"}
	}

	result := internal.ComparisonResult{}

	byID := make(map[string]*internal.ModelResponse, len(responses))
	for i := range responses {
		resp := &responses[i]
		byID[resp.ID] = resp
		result.TotalCost += resp.Cost
		result.TotalLatency += resp.Latency
		if resp.Latency > result.MaxLatency {
			result.MaxLatency = resp.Latency
		}
		if resp.Status == internal.ResponseError {
			result.FailedModels = append(result.FailedModels, internal.FailedModel{
				ModelID: resp.ModelID,
				Kind:    resp.ErrorKind,
				Detail:  resp.ErrorDetail,
			})
		}
	}

	if len(evaluations) == 0 {
		result.AllFailed = true
		result.ProcessingTime = processingTime(session)
		return result, nil
	}

	sort.SliceStable(evaluations, func(i, j int) bool {
		a, b := evaluations[i], evaluations[j]
		if a.TrustScore != b.TrustScore {
			return a.TrustScore > b.TrustScore
		}
		la, lb := responseLatency(byID, a.ResponseID), responseLatency(byID, b.ResponseID)
		if la != lb {
			return la < lb
		}
		return a.ModelID < b.ModelID
	})

	for i := range evaluations {
		evaluations[i].Rank = i + 1
		evaluations[i].IsBest = i == 0
	}

	best := evaluations[0]
	result.BestModel = best.ModelID
	result.BestModelReason = bestReason(best, len(evaluations))
	if resp, ok := byID[best.ResponseID]; ok {
		result.BestAnswer = resp.ResponseText
	}
	result.SafestModel = safestModel(evaluations)
	result.ProcessingTime = processingTime(session)

	return result, nil
}

func responseLatency(byID map[string]*internal.ModelResponse, responseID string) time.Duration {
	if resp, ok := byID[responseID]; ok {
		return resp.Latency
	}
	return 0
}

// safestModel is the evaluated model with the lowest hallucination risk,
// ties broken by model id for determinism.
func safestModel(evaluations []internal.EvaluationResult) string {
	safest := evaluations[0]
	for _, eval := range evaluations[1:] {
		if eval.HallucinationRisk < safest.HallucinationRisk ||
			(eval.HallucinationRisk == safest.HallucinationRisk && eval.ModelID < safest.ModelID) {
			safest = eval
		}
	}
	return safest.ModelID
}

func bestReason(best internal.EvaluationResult, evaluated int) string {
	if evaluated == 1 {
		return fmt.Sprintf("only successful response (trust score %.1f)", best.TrustScore)
	}
	return fmt.Sprintf("highest trust score (%.1f) across %d evaluated responses", best.TrustScore, evaluated)
}

func processingTime(session internal.PromptSession) time.Duration {
	if session.CreatedAt.IsZero() {
		return 0
	}
	return time.Since(session.CreatedAt)
}
