// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/validate"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Wallets *wallet.Wallets
	WS      websocket.Upgrader
	Evts    *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Blocks returns the chain, most recent block first.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.QueryBlocks()
	if err != nil {
		return errs.Ledger(err)
	}

	resp := make([]block, len(blocks))
	for i, blk := range blocks {
		resp[i] = toBlock(blk)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transaction returns the transaction with the specified id.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tx, err := h.State.QueryTransaction(web.Param(r, "id"))
	if err != nil {
		return errs.Ledger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Balance returns the balance of the specified address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return errs.Ledger(err)
	}

	bal, err := h.State.QueryBalance(address)
	if err != nil {
		return errs.Ledger(err)
	}

	return web.Respond(ctx, w, balance{Address: address, Balance: bal}, http.StatusOK)
}

// Addresses returns the balance of every address held in the wallet folder.
func (h Handlers) Addresses(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, err := h.State.QueryLatestHash()
	if err != nil {
		return errs.Ledger(err)
	}

	addresses, err := h.Wallets.Addresses()
	if err != nil {
		return err
	}

	bals := balances{
		LatestBlock: latest,
		Balances:    make([]balance, 0, len(addresses)),
	}
	for _, address := range addresses {
		bal, err := h.State.QueryBalance(address)
		if err != nil {
			return errs.Ledger(err)
		}
		bals.Balances = append(bals.Balances, balance{Address: address, Balance: bal})
	}

	return web.Respond(ctx, w, bals, http.StatusOK)
}

// Transfer moves value from a wallet address to another address and mines
// the transaction into a new block.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tr Transfer
	if err := web.Decode(r, &tr); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(tr); err != nil {
		return err
	}

	from, err := database.ToAddress(tr.From)
	if err != nil {
		return errs.Ledger(fmt.Errorf("from: %w", err))
	}

	to, err := database.ToAddress(tr.To)
	if err != nil {
		return errs.Ledger(fmt.Errorf("to: %w", err))
	}

	privateKey, err := h.Wallets.Find(from)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	h.Log.Infow("transfer", "traceid", v.TraceID, "from", from, "to", to, "amount", tr.Amount)

	blk, err := h.State.Transfer(privateKey, to, tr.Amount)
	if err != nil {
		return errs.Ledger(err)
	}

	var txID string
	for _, tx := range blk.Transactions() {
		if !tx.IsCoinbase() {
			txID = tx.ID
		}
	}

	return web.Respond(ctx, w, transferResult{TxID: txID, Block: toBlock(blk)}, http.StatusCreated)
}
