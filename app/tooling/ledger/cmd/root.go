// Package cmd contains the commands of the ledger command line interface.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set of exit codes reported by the process. Any failure without a code of
// its own exits with ExitFailure.
const (
	ExitSuccess            = 0
	ExitFailure            = 1
	ExitInsufficientFunds  = 2
	ExitInvalidTransaction = 3
	ExitMiningExhausted    = 4
	ExitStorageUnavailable = 5
)

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, database.ErrInsufficientFunds):
		return ExitInsufficientFunds
	case errors.Is(err, database.ErrInvalidTransaction):
		return ExitInvalidTransaction
	case errors.Is(err, database.ErrMiningExhausted):
		return ExitMiningExhausted
	case errors.Is(err, database.ErrStorageUnavailable):
		return ExitStorageUnavailable
	default:
		return ExitFailure
	}
}

// Config carries the settings every command runs with.
type Config struct {
	Log           *zap.SugaredLogger
	DBPath        string
	DBTimeout     time.Duration
	WalletsFolder string
	MinerAddress  string
	Out           io.Writer
}

// Execute runs the command named by args.
func Execute(cfg Config, args []string) error {
	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}

	root := newRoot(cfg)
	root.SetArgs(args)

	return root.Execute()
}

// Usage returns the list of commands and their arguments.
func Usage() string {
	return newRoot(Config{}).UsageString()
}

func newRoot(cfg Config) *cobra.Command {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}

	root := cobra.Command{
		Use:           "ledger",
		Short:         "Single node proof of work utxo ledger",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	if cfg.Out != nil {
		root.SetOut(cfg.Out)
	}

	root.AddCommand(
		createWalletCmd(cfg),
		listAddressesCmd(cfg),
		createBlockchainCmd(cfg),
		transferCmd(cfg),
		printCmd(cfg),
		getBalanceCmd(cfg),
		reindexCmd(cfg),
		verifyChainCmd(cfg),
	)

	return &root
}

// =============================================================================

// openState opens the chain database and hands the ledger to fn. The
// database is closed when fn returns.
func openState(cfg Config, fn func(st *state.State) error) error {
	storage, err := disk.New(cfg.DBPath, cfg.DBTimeout)
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		cfg.Log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}

	st, err := state.New(state.Config{
		Storage:      storage,
		MinerAddress: database.Address(cfg.MinerAddress),
		EvHandler:    ev,
	})
	if err != nil {
		storage.Close()
		return err
	}

	err = fn(st)
	if sErr := st.Shutdown(); sErr != nil && err == nil {
		err = sErr
	}

	return err
}

func openWallets(cfg Config) (*wallet.Wallets, error) {
	return wallet.New(cfg.WalletsFolder)
}

func parseAddress(s string) (database.Address, error) {
	address, err := database.ToAddress(s)
	if err != nil {
		return "", fmt.Errorf("address %q: %w", s, err)
	}
	return address, nil
}
