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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arenalab/promptarena/internal/registry"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long:  `List the models in the registry with their provider, pricing, and timeout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROVIDER\tNAME\tIN $/1K\tOUT $/1K\tTIMEOUT\tENABLED")
		for _, m := range reg.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%s\t%v\n",
				m.ID, m.Provider, m.DisplayName,
				m.InputCostPer1K, m.OutputCostPer1K,
				m.DefaultTimeout, m.Enabled)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
