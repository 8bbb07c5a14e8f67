package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/oracleview/internal/chain"
	"github.com/alanyoungcy/oracleview/internal/domain"
)

var disputeNative bool

var disputeIDCmd = &cobra.Command{
	Use:   "dispute-id <foreignProxy> <questionId> <rpcUrl>",
	Short: "Print the dispute ID raised for a question, or null",
	Long: `Scans the proxy's logs for the dispute created for questionId.

By default the proxy is a foreign-chain arbitration proxy and ArbitrationCreated
logs are matched. With --native the address is a home-chain arbitrator and
DisputeIDToQuestionID logs are matched instead.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := chain.NewResolver(chain.Options{
			FromBlock:  cfg.Resolver.FromBlock,
			BlockRange: cfg.Resolver.BlockRange,
			Timeout:    cfg.Resolver.Timeout.Duration,
		}, logger)

		lookup := resolver.DisputeID
		if disputeNative {
			lookup = resolver.DisputeIDNative
		}

		id, err := lookup(cmd.Context(), args[0], args[1], args[2])
		return printDisputeID(cmd, id, err)
	},
}

func init() {
	disputeIDCmd.Flags().BoolVar(&disputeNative, "native", false, "match DisputeIDToQuestionID logs of a home-chain arbitrator")
}

// printDisputeID writes id, or null when the lookup found nothing.
func printDisputeID(cmd *cobra.Command, id *big.Int, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "null")
		return err
	case err != nil:
		return err
	default:
		_, err = fmt.Fprintln(cmd.OutOrStdout(), id.String())
		return err
	}
}
