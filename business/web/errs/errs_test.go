package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/stretchr/testify/assert"
)

func TestLedger(t *testing.T) {
	tt := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("query: %w", database.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("transfer: %w", database.ErrInsufficientFunds), http.StatusBadRequest},
		{fmt.Errorf("to: %w", database.ErrInvalidAddress), http.StatusBadRequest},
		{database.ErrMiningExhausted, http.StatusServiceUnavailable},
	}

	for _, tst := range tt {
		err := errs.Ledger(tst.err)
		if assert.True(t, errs.IsTrusted(err), tst.err.Error()) {
			assert.Equal(t, tst.status, errs.GetTrusted(err).Status)
			assert.ErrorIs(t, err, tst.err)
		}
	}

	plain := errors.New("disk failure")
	assert.False(t, errs.IsTrusted(errs.Ledger(plain)))
}
