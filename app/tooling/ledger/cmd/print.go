package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
	txStyle    = lipgloss.NewStyle().PaddingLeft(2)
)

func printCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print every block of the chain, most recent first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return openState(cfg, func(st *state.State) error {
				if _, err := st.QueryLatestHash(); err != nil {
					return err
				}

				iter := st.Blocks()
				for !iter.Done() {
					block, err := iter.Next()
					if err != nil {
						return err
					}
					printBlock(cmd.OutOrStdout(), block)
				}

				return nil
			})
		},
	}
}

func printBlock(w io.Writer, block database.Block) {
	field := func(label string, value string) {
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
	}

	fmt.Fprintln(w, titleStyle.Render("============ Block "+block.Hash()+" ============"))
	field("Prev", block.Header.PrevBlockHash)
	field("Time", time.Unix(block.Header.TimeStamp, 0).UTC().Format(time.RFC3339))
	field("Nonce", strconv.FormatUint(uint64(block.Header.Nonce), 10))
	field("Merkle", block.Header.TransRoot)
	field("PoW", strconv.FormatBool(database.NewProofOfWork(block).Validate()))

	for _, tx := range block.Transactions() {
		fmt.Fprintln(w, txStyle.Render("- "+tx.String()))
		for _, out := range tx.Outputs {
			to := database.PubKeyHashToAddress(out.PubKeyHash)
			fmt.Fprintln(w, txStyle.Render(fmt.Sprintf("    %d -> %s", out.Value, to)))
		}
	}

	fmt.Fprintln(w)
}
