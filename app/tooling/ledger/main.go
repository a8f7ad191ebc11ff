// This program is the command line interface of the ledger. It creates
// wallets and the chain, moves value between addresses and inspects the
// chain held in the local database.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxochain/app/tooling/ledger/cmd"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Logs go to stderr so command output on stdout stays clean.
	log, err := logger.New("LEDGER", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("ledger", "ERROR", err)
		log.Sync()
		os.Exit(cmd.ExitCode(err))
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Args conf.Args
		DB   struct {
			Path    string        `conf:"default:zblock/chain.db"`
			Timeout time.Duration `conf:"default:1s"`
		}
		Wallets struct {
			Folder string `conf:"default:zblock/wallets/"`
		}
		State struct {
			MinerAddress string
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "single node proof of work utxo ledger",
		},
	}

	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			fmt.Println(cmd.Usage())
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Debugw("startup", "config", out)

	// =========================================================================
	// Run Command

	return cmd.Execute(cmd.Config{
		Log:           log,
		DBPath:        cfg.DB.Path,
		DBTimeout:     cfg.DB.Timeout,
		WalletsFolder: cfg.Wallets.Folder,
		MinerAddress:  cfg.State.MinerAddress,
		Out:           os.Stdout,
	}, cfg.Args)
}
