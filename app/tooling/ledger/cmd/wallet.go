package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func createWalletCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "createwallet",
		Short: "Generate a new key pair and save it in the wallet folder.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wallets, err := openWallets(cfg)
			if err != nil {
				return err
			}

			address, err := wallets.Create()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Your new address: %s\n", address)
			return nil
		},
	}
}

func listAddressesCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "listaddresses",
		Short: "List the addresses held in the wallet folder.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wallets, err := openWallets(cfg)
			if err != nil {
				return err
			}

			addresses, err := wallets.Addresses()
			if err != nil {
				return err
			}

			for _, address := range addresses {
				fmt.Fprintln(cmd.OutOrStdout(), address)
			}
			return nil
		},
	}
}
