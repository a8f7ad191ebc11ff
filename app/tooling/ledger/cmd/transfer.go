package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func transferCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Send amount coins from a wallet address to another address and mine it.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			to, err := parseAddress(args[1])
			if err != nil {
				return err
			}

			amount, err := database.ParseCoins(args[2])
			if err != nil {
				return err
			}

			wallets, err := openWallets(cfg)
			if err != nil {
				return err
			}

			privateKey, err := wallets.Find(from)
			if err != nil {
				return err
			}

			return openState(cfg, func(st *state.State) error {
				block, err := st.Transfer(privateKey, to, amount)
				if err != nil {
					return err
				}

				for _, tx := range block.Transactions() {
					if !tx.IsCoinbase() {
						fmt.Fprintf(cmd.OutOrStdout(), "Success! Transaction %s\n", tx.ID)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mined into block %s\n", block.Hash())
				return nil
			})
		},
	}
}

func getBalanceCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "getbalance <address>",
		Short: "Print the sum in coins of the unspent outputs locked to address.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			return openState(cfg, func(st *state.State) error {
				if _, err := st.QueryLatestHash(); err != nil {
					return err
				}

				balance, err := st.QueryBalance(address)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Balance of '%s': %s\n", address, database.FormatCoins(balance))
				return nil
			})
		},
	}
}
