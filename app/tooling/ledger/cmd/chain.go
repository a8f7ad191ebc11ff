package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func createBlockchainCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "createblockchain <address>",
		Short: "Create a chain whose genesis block pays the subsidy to address.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			return openState(cfg, func(st *state.State) error {
				block, err := st.CreateGenesis(to)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Done! Genesis block %s\n", block.Hash())
				return nil
			})
		},
	}
}

func reindexCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the unspent output index from the chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return openState(cfg, func(st *state.State) error {
				count, err := st.Reindex()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Done! There are %d transactions in the UTXO set.\n", count)
				return nil
			})
		},
	}
}

func verifyChainCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verifychain",
		Short: "Check the proof of work, linkage and signatures of the whole chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return openState(cfg, func(st *state.State) error {
				count, err := st.VerifyChain()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Chain is valid: %d blocks verified.\n", count)
				return nil
			})
		},
	}
}
