package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxochain/app/services/node/handlers"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		DB struct {
			Path    string        `conf:"default:zblock/chain.db"`
			Timeout time.Duration `conf:"default:1s"`
		}
		Wallets struct {
			Folder string `conf:"default:zblock/wallets/"`
		}
		State struct {
			MinerAddress   string
			GenesisAddress string
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "single node proof of work utxo ledger",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`  _   _ _____ __  __  ___   ____ _   _    _    ___ _   _ `)
	fmt.Println(` | | | |_   _|\ \/ / / _ \ / ___| | | |  / \  |_ _| \ | |`)
	fmt.Println(` | | | | | |   \  / | | | | |   | |_| | / _ \  | ||  \| |`)
	fmt.Println(` | |_| | | |   /  \ | |_| | |___|  _  |/ ___ \ | || |\  |`)
	fmt.Println(`  \___/  |_|  /_/\_\ \___/ \____|_| |_/_/   \_\___|_| \_|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Wallet Support

	wallets, err := wallet.New(cfg.Wallets.Folder)
	if err != nil {
		return fmt.Errorf("unable to open wallet folder: %w", err)
	}

	addresses, err := wallets.Addresses()
	if err != nil {
		return fmt.Errorf("unable to list wallet addresses: %w", err)
	}
	for _, address := range addresses {
		log.Infow("startup", "status", "wallet", "address", address)
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New(events.DefaultBuffer)
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	storage, err := disk.New(cfg.DB.Path, cfg.DB.Timeout)
	if err != nil {
		return err
	}

	st, err := state.New(state.Config{
		Storage:      storage,
		MinerAddress: database.Address(cfg.State.MinerAddress),
		EvHandler:    ev,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer st.Shutdown()

	hasChain, err := st.HasChain()
	if err != nil {
		return err
	}

	switch {
	case hasChain:
		latest, err := st.QueryLatestHash()
		if err != nil {
			return err
		}
		log.Infow("startup", "status", "chain loaded", "latest", latest)

	case cfg.State.GenesisAddress != "":
		to, err := database.ToAddress(cfg.State.GenesisAddress)
		if err != nil {
			return fmt.Errorf("genesis address: %w", err)
		}

		block, err := st.CreateGenesis(to)
		if err != nil {
			return fmt.Errorf("create genesis: %w", err)
		}
		log.Infow("startup", "status", "genesis created", "hash", block.Hash(), "to", to)

	default:
		log.Infow("startup", "status", "no chain found, set NODE_STATE_GENESIS_ADDRESS to create one")
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, st)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Wallets:  wallets,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
