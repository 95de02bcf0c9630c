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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/pipeline"
	"github.com/arenalab/promptarena/internal/provider"
)

var (
	batchInputFile  string
	batchOutputFile string
	batchModels     []string
	batchUserID     string

	batchTemperature float64
	batchMaxTokens   int

	batchDBPath  string
	batchNoStore bool
)

// batchRecord is one line of JSONL output.
type batchRecord struct {
	Prompt    string  `json:"prompt"`
	SessionID string  `json:"session_id,omitempty"`
	Domain    string  `json:"domain,omitempty"`
	BestModel string  `json:"best_model,omitempty"`
	Trust     float64 `json:"trust_score,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
	Error     string  `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compare a file of prompts, one per line",
	Long: `Run every prompt in a file through the comparison pipeline.

The input file holds one prompt per line; blank lines and lines starting
with # are skipped. Each result is appended as a JSON line to --output
when set. Prompts that fail validation are reported and skipped; the run
continues.

Example:
  promptarena batch -i prompts.txt -o results.jsonl -m gpt-3.5-turbo,gemini-pro`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchInputFile == batchOutputFile && batchOutputFile != "" {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		f, err := os.Open(batchInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		var prompts []string
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			prompts = append(prompts, line)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		if len(prompts) == 0 {
			return fmt.Errorf("input file contains no prompts")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dbPath := cfg.Database.Path
		if batchDBPath != "" {
			dbPath = batchDBPath
		}
		if batchNoStore {
			dbPath = ""
		}

		p, _, db, err := buildPipeline(cfg, dbPath)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		var out *json.Encoder
		if batchOutputFile != "" {
			outFile, err := os.Create(batchOutputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer outFile.Close()
			out = json.NewEncoder(outFile)
		}

		ctx := context.Background()
		records := make([]batchRecord, 0, len(prompts))
		failed := 0

		for i, prompt := range prompts {
			fmt.Fprintf(os.Stderr, "Prompt %d/%d...\n", i+1, len(prompts))

			outcome, err := p.Submit(ctx, pipeline.SubmitRequest{
				Prompt: prompt,
				Models: batchModels,
				UserID: batchUserID,
				Options: provider.Options{
					MaxTokens:   batchMaxTokens,
					Temperature: batchTemperature,
				},
			})

			rec := batchRecord{Prompt: prompt}
			switch {
			case err != nil:
				fmt.Fprintf(os.Stderr, "Prompt %d failed: %v\n", i+1, err)
				rec.Error = err.Error()
				failed++
			case outcome.Comparison.AllFailed:
				fmt.Fprintf(os.Stderr, "Prompt %d: all model calls failed\n", i+1)
				rec.SessionID = outcome.Session.ID
				rec.Domain = outcome.Session.Domain
				rec.Error = "all model calls failed"
				failed++
			default:
				rec.SessionID = outcome.Session.ID
				rec.Domain = outcome.Session.Domain
				rec.BestModel = outcome.Comparison.BestModel
				rec.Trust = bestTrust(outcome.Evaluations)
				rec.Cost = outcome.Comparison.TotalCost
			}

			records = append(records, rec)
			if out != nil {
				if err := out.Encode(rec); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROMPT\tDOMAIN\tBEST MODEL\tTRUST\tCOST")
		for _, rec := range records {
			snippet := rec.Prompt
			if len(snippet) > 40 {
				snippet = snippet[:37] + "..."
			}
			if rec.Error != "" {
				fmt.Fprintf(w, "%s\t%s\t(failed)\t-\t-\n", snippet, rec.Domain)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t$%.4f\n",
				snippet, rec.Domain, rec.BestModel, rec.Trust, rec.Cost)
		}
		w.Flush()

		fmt.Printf("\nProcessed %d prompts, %d failed\n", len(prompts), failed)
		return nil
	},
}

func bestTrust(evaluations []internal.EvaluationResult) float64 {
	for _, e := range evaluations {
		if e.IsBest {
			return e.TrustScore
		}
	}
	return 0
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchInputFile, "input", "i", "", "Input file with one prompt per line (required)")
	batchCmd.Flags().StringVarP(&batchOutputFile, "output", "o", "", "Output JSONL file (optional)")
	batchCmd.Flags().StringSliceVarP(&batchModels, "models", "m", []string{"gpt-3.5-turbo", "claude-3-sonnet-20240229"}, "Model IDs to compare (comma-separated)")
	batchCmd.Flags().StringVar(&batchUserID, "user", "", "User ID to attach to the sessions")

	batchCmd.Flags().Float64Var(&batchTemperature, "temperature", 0.7, "Sampling temperature in [0,2]")
	batchCmd.Flags().IntVar(&batchMaxTokens, "max-tokens", 0, "Max output tokens per model (0 = provider default)")

	batchCmd.Flags().StringVar(&batchDBPath, "db", "", "Database path (overrides config)")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "Do not persist sessions")

	batchCmd.MarkFlagRequired("input")
}
