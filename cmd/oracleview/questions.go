package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/oracleview/internal/app"
	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/format"
)

var (
	questionsChain  string
	questionsPhase  string
	questionsSearch string
	questionsPage   int
	questionsLimit  int
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the filtered question list of a chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		phase, ok := domain.ParsePhase(questionsPhase)
		if !ok {
			return fmt.Errorf("unknown phase %q", questionsPhase)
		}

		svcs, err := app.BuildServices(cfg, logger)
		if err != nil {
			return err
		}

		chainID := questionsChain
		if chainID == "" {
			chainID = cfg.Chains[0].ID
		}
		chain, err := svcs.Questions.Chain(chainID)
		if err != nil {
			return fmt.Errorf("chain %q: %w", chainID, err)
		}

		page, err := svcs.Questions.Query(cmd.Context(), chain.ID, domain.QuestionFilter{
			Phase:  phase,
			Search: questionsSearch,
			Page:   questionsPage,
			Limit:  questionsLimit,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPHASE\tBOND\tREMAINING\tTITLE")
		for _, q := range page.Questions {
			remaining := "-"
			if q.Phase == domain.PhaseOpen || q.Phase == domain.PhaseUpcoming {
				remaining = format.Countdown(q.TimeRemaining)
			}
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n",
				format.ShortAddress(q.ID),
				q.Phase,
				format.Ether(q.CurrentBond), chain.Currency,
				remaining,
				q.Title,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%s: page %d of %d, %d matching, %d active, as of %s\n",
			chain.Name, page.Page, page.Pages, page.Total, page.Active, format.Timestamp(now))
		return err
	},
}

func init() {
	questionsCmd.Flags().StringVar(&questionsChain, "chain", "", "chain id (defaults to the first configured chain)")
	questionsCmd.Flags().StringVar(&questionsPhase, "phase", "", "only questions in this phase")
	questionsCmd.Flags().StringVar(&questionsSearch, "search", "", "case-insensitive search over title, description and ID")
	questionsCmd.Flags().IntVar(&questionsPage, "page", 1, "page number")
	questionsCmd.Flags().IntVar(&questionsLimit, "limit", 20, "questions per page")
}
