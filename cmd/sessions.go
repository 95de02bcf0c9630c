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
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/store"
)

var (
	sessionsDBPath string
	sessionsLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored comparison sessions",
	Long:  `List, inspect, and summarise past prompt comparison sessions.`,
}

func openSessionsStore() (*store.Store, error) {
	dbPath := sessionsDBPath
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		dbPath = cfg.Database.Path
	}
	db, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSessionsStore()
		if err != nil {
			return err
		}
		defer db.Close()

		sessions, err := db.ListSessions(context.Background(), sessionsLimit)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No stored sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tDOMAIN\tSAFETY\tSTATUS\tMODELS\tPROMPT")
		for _, s := range sessions {
			snippet := s.PromptText
			if len(snippet) > 40 {
				snippet = snippet[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04"),
				s.Domain, s.SafetyLevel, s.Status,
				strings.Join(s.SelectedModels, ","), snippet)
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session with responses and scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSessionsStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		session, err := db.GetSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		fmt.Printf("Session:  %s\n", session.ID)
		fmt.Printf("Created:  %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Domain:   %s (safety %s)\n", session.Domain, session.SafetyLevel)
		fmt.Printf("Status:   %s\n", session.Status)
		fmt.Printf("Models:   %s\n", strings.Join(session.SelectedModels, ", "))
		fmt.Printf("Prompt:   %s\n\n", session.PromptText)

		responses, err := db.GetResponses(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to load responses: %w", err)
		}
		evaluations, err := db.GetEvaluations(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to load evaluations: %w", err)
		}

		if len(evaluations) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tMODEL\tTRUST\tRELEVANCE\tCLARITY\tRISK")
			for _, e := range evaluations {
				best := ""
				if e.IsBest {
					best = " *"
				}
				fmt.Fprintf(w, "%d\t%s%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
					e.Rank, e.ModelID, best, e.TrustScore,
					e.Relevance, e.Clarity, e.HallucinationRisk)
			}
			w.Flush()
			fmt.Println()
		}

		for _, r := range responses {
			if r.Status != internal.ResponseSuccess {
				fmt.Printf("--- %s (%s) failed: %s: %s\n\n", r.ModelID, r.Provider, r.ErrorKind, r.ErrorDetail)
				continue
			}
			fmt.Printf("--- %s (%s, %dms, $%.4f)\n%s\n\n",
				r.ModelID, r.Provider, r.Latency.Milliseconds(), r.Cost, r.ResponseText)
		}
		return nil
	},
}

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics over stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSessionsStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total sessions:    %d\n", stats.TotalSessions)
		fmt.Printf("Complete sessions: %d\n", stats.CompleteSessions)
		fmt.Printf("Failed sessions:   %d\n", stats.FailedSessions)
		fmt.Printf("Total responses:   %d\n", stats.TotalResponses)
		fmt.Printf("Total cost:        $%.4f\n", stats.TotalCost)
		return nil
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSessionsStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearSessions(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		fmt.Printf("Cleared %d sessions.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.PersistentFlags().StringVar(&sessionsDBPath, "db", "", "Database path (overrides config)")
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsStatsCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
}
