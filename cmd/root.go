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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "promptarena",
	Short: "Multi-Model Prompt Comparison",
	Long: `A CLI and HTTP service that sends one prompt to multiple LLM providers
in parallel, scores every answer for relevance, clarity and hallucination
risk, and ranks the models by a composite trust score.

Supported providers: OpenAI, Anthropic, Google, Groq

Use "promptarena compare --help" for comparison options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default promptarena.yaml in . or $HOME/.promptarena)")
}
