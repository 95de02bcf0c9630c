package evaluator

import (
	"github.com/google/uuid"

	"github.com/arenalab/promptarena/internal"
)

// biasScore is a fixed placeholder pending a dedicated bias detector.
const biasScore = 20.0

// Weights combines the component scores into a trust score. Relevance,
// clarity and coherence contribute positively; hallucination risk and bias
// count against. The defaults are heuristic, not a validated model, which
// is why they are a parameter rather than constants.
type Weights struct {
	Relevance     float64 `mapstructure:"relevance"`
	Hallucination float64 `mapstructure:"hallucination"`
	Clarity       float64 `mapstructure:"clarity"`
	Coherence     float64 `mapstructure:"coherence"`
	Bias          float64 `mapstructure:"bias"`
}

func DefaultWeights() Weights {
	return Weights{
		Relevance:     0.30,
		Hallucination: 0.25,
		Clarity:       0.20,
		Coherence:     0.15,
		Bias:          0.10,
	}
}

// Evaluator scores successful model responses. Scoring is a pure function
// of the prompt and response text, so identical inputs always produce
// identical scores.
type Evaluator struct {
	weights Weights
}

func New(weights Weights) *Evaluator {
	zero := Weights{}
	if weights == zero {
		weights = DefaultWeights()
	}
	return &Evaluator{weights: weights}
}

// Evaluate scores one model response. Error responses are skipped and
// return nil; they carry no scores.
func (e *Evaluator) Evaluate(prompt string, resp internal.ModelResponse) *internal.EvaluationResult {
	if resp.Status != internal.ResponseSuccess {
		return nil
	}

	relevance := relevanceScore(prompt, resp.ResponseText)
	clarity := clarityScore(resp.ResponseText)
	coherence := coherenceScore(resp.ResponseText)
	risk := hallucinationRisk(resp.ResponseText)
	accuracy := 100 - risk

	trust := e.weights.Relevance*relevance +
		e.weights.Hallucination*(100-risk) +
		e.weights.Clarity*clarity +
		e.weights.Coherence*coherence +
		e.weights.Bias*(100-biasScore)

	return &internal.EvaluationResult{
		ID:                uuid.New().String(),
		ResponseID:        resp.ID,
		ModelID:           resp.ModelID,
		Accuracy:          accuracy,
		Relevance:         relevance,
		Clarity:           clarity,
		Coherence:         coherence,
		HallucinationRisk: risk,
		TrustScore:        clamp(trust),
	}
}
