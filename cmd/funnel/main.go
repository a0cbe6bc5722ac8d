package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	trialsPath      string
	eligibilityPath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Narrow clinical trials through eligibility questions",
	Long: `funnel works with the same reference data as the chat service but
without the LLM front end.

  funnel run      Interactively narrow trials from the terminal
  funnel import   Load the CSV/TSV reference data into Postgres`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&trialsPath, "trials", "data/refined_trials.csv", "Path to the trial catalog CSV")
	rootCmd.PersistentFlags().StringVar(&eligibilityPath, "eligibility", "data/cfg_parsed_clinical_trials.tsv", "Path to the eligibility TSV")
}
