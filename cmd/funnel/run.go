package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trialfunnel/internal/db"
	"trialfunnel/internal/funnel"
)

var maxResults int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ask eligibility questions interactively until few trials remain",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := zap.NewNop()
		trials, err := db.LoadTrialsFile(trialsPath, log)
		if err != nil {
			return fmt.Errorf("loading trials: %w", err)
		}
		rows, err := db.LoadEligibilityFile(eligibilityPath, log)
		if err != nil {
			return fmt.Errorf("loading eligibility relations: %w", err)
		}

		catalog := funnel.NewCatalog(trials)
		index := funnel.NewIndex(rows)
		sess := funnel.NewSession(catalog, index, maxResults, log)
		scanner := bufio.NewScanner(os.Stdin)

		color.Cyan("What is your condition? ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		res, err := sess.SetCondition(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return err
		}
		for !res.Done {
			color.Yellow("%s ", res.NextQuestion)
			if !scanner.Scan() {
				return scanner.Err()
			}
			res, err = sess.SubmitAnswer(strings.TrimSpace(scanner.Text()))
			if err != nil {
				return err
			}
			fmt.Printf("%d trials still available\n", len(sess.Candidates()))
		}

		if len(res.Trials) == 0 {
			color.Red("No trials match your criteria.")
			return nil
		}
		color.Green("The following trials match your criteria:")
		for _, id := range res.Trials {
			fmt.Println("  " + id)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&maxResults, "max-results", funnel.DefaultTerminalThreshold, "Stop asking once this many trials or fewer remain")
	rootCmd.AddCommand(runCmd)
}
