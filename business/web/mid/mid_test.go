package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/business/web/mid"
	"github.com/ardanlabs/utxochain/foundation/validate"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(t *testing.T, handler web.Handler) (*httptest.ResponseRecorder, errs.Response) {
	t.Helper()

	app := web.NewApp(make(chan os.Signal, 1), mid.Errors(zap.NewNop().Sugar()), mid.Cors("*"), mid.Panics())
	app.Handle(http.MethodGet, "v1", "/test", handler)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

	var resp errs.Response
	if w.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}

	return w, resp
}

func TestErrors(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"trusted", errs.NewTrusted(errors.New("insufficient funds"), http.StatusBadRequest), http.StatusBadRequest, "insufficient funds"},
		{"fields", validate.FieldErrors{{Field: "to", Error: "to is a required field"}}, http.StatusBadRequest, "data validation error"},
		{"untrusted", errors.New("disk on fire"), http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			w, resp := serve(t, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return tst.err
			})

			assert.Equal(t, tst.status, w.Code)
			assert.Equal(t, tst.msg, resp.Error)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestPanics(t *testing.T) {
	w, resp := serve(t, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), resp.Error)
}

func TestRespond(t *testing.T) {
	w, _ := serve(t, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, map[string]int{"height": 3}, http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"height":3}`, w.Body.String())
}
