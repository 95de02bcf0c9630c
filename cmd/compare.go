/*
Copyright © 2026 PromptArena Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/pipeline"
	"github.com/arenalab/promptarena/internal/provider"
)

var (
	comparePrompt    string
	compareInputFile string
	compareModels    []string
	compareUserID    string

	compareTemperature float64
	compareMaxTokens   int

	compareDBPath  string
	compareNoStore bool
	compareJSON    bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare one prompt across multiple models",
	Long: `Send a prompt to multiple LLM providers in parallel, evaluate every
answer, and print the models ranked by trust score.

The prompt comes from --prompt or from a file via --input. Results are
persisted to the session database unless --no-store is set.

Example:
  promptarena compare -p "Explain TCP slow start" -m gpt-3.5-turbo,claude-3-sonnet-20240229`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := comparePrompt
		if prompt == "" && compareInputFile != "" {
			raw, err := os.ReadFile(compareInputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			prompt = string(raw)
		}
		if prompt == "" {
			return fmt.Errorf("either --prompt or --input is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dbPath := cfg.Database.Path
		if compareDBPath != "" {
			dbPath = compareDBPath
		}
		if compareNoStore {
			dbPath = ""
		}

		p, _, db, err := buildPipeline(cfg, dbPath)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		fmt.Fprintf(os.Stderr, "Comparing across %d models...\n", len(compareModels))

		outcome, err := p.Submit(context.Background(), pipeline.SubmitRequest{
			Prompt: prompt,
			Models: compareModels,
			UserID: compareUserID,
			Options: provider.Options{
				MaxTokens:   compareMaxTokens,
				Temperature: compareTemperature,
			},
		})
		if err != nil {
			return err
		}

		if compareJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outcome)
		}

		printOutcome(outcome)

		if outcome.Comparison.AllFailed {
			return fmt.Errorf("all model calls failed")
		}
		return nil
	},
}

func printOutcome(outcome *internal.ComparisonOutcome) {
	cls := outcome.Classification
	fmt.Fprintf(os.Stderr, "Domain: %s (confidence %.2f), safety: %s\n",
		cls.Domain, cls.Confidence, cls.SafetyLevel)
	for _, warning := range cls.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	for _, failed := range outcome.Comparison.FailedModels {
		fmt.Fprintf(os.Stderr, "Model %s failed: %s: %s\n", failed.ModelID, failed.Kind, failed.Detail)
	}

	if len(outcome.Evaluations) > 0 {
		latencies := make(map[string]int64, len(outcome.Responses))
		for _, resp := range outcome.Responses {
			latencies[resp.ModelID] = resp.Latency.Milliseconds()
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tMODEL\tTRUST\tRELEVANCE\tCLARITY\tRISK\tLATENCY")
		for _, eval := range outcome.Evaluations {
			best := ""
			if eval.IsBest {
				best = " *"
			}
			fmt.Fprintf(w, "%d\t%s%s\t%.1f\t%.1f\t%.1f\t%.1f\t%dms\n",
				eval.Rank, eval.ModelID, best, eval.TrustScore,
				eval.Relevance, eval.Clarity, eval.HallucinationRisk,
				latencies[eval.ModelID])
		}
		w.Flush()
	}

	cmp := outcome.Comparison
	if cmp.BestModel != "" {
		fmt.Printf("\nBest model: %s (%s)\n", cmp.BestModel, cmp.BestModelReason)
		if cmp.SafestModel != "" && cmp.SafestModel != cmp.BestModel {
			fmt.Printf("Safest model: %s\n", cmp.SafestModel)
		}
		fmt.Printf("Total cost: $%.4f, processing time: %s\n\n", cmp.TotalCost, cmp.ProcessingTime)
		fmt.Println(cmp.BestAnswer)
	}
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&comparePrompt, "prompt", "p", "", "Prompt text to compare")
	compareCmd.Flags().StringVarP(&compareInputFile, "input", "i", "", "Read prompt from file instead of --prompt")
	compareCmd.Flags().StringSliceVarP(&compareModels, "models", "m", []string{"gpt-3.5-turbo", "claude-3-sonnet-20240229"}, "Model IDs to compare (comma-separated)")
	compareCmd.Flags().StringVar(&compareUserID, "user", "", "User ID to attach to the session")

	compareCmd.Flags().Float64Var(&compareTemperature, "temperature", 0.7, "Sampling temperature in [0,2]")
	compareCmd.Flags().IntVar(&compareMaxTokens, "max-tokens", 0, "Max output tokens per model (0 = provider default)")

	compareCmd.Flags().StringVar(&compareDBPath, "db", "", "Database path (overrides config)")
	compareCmd.Flags().BoolVar(&compareNoStore, "no-store", false, "Do not persist the session")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Print the full outcome as JSON")
}
