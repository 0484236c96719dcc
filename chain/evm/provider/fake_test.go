package provider

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
)

// newFakeRPCServer returns a fake JSON-RPC server which answers each method with the raw JSON
// result given in results. Unknown methods get a method-not-found error.
//
// When the test is done, the server is closed automatically.
func newFakeRPCServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		result, ok := results[req.Method]
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) +
				`,"error":{"code":-32601,"message":"method not found"}}`))

			return
		}

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	})

	srv := httptest.NewServer(handler)

	t.Cleanup(func() {
		srv.Close()
	})

	return srv
}

// alwaysFailingTransactorGenerator returns a SignerGenerator that always fails with an error.
type alwaysFailingTransactorGenerator struct{}

func (a *alwaysFailingTransactorGenerator) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	return nil, assert.AnError
}

// alwaysFailingConfirmFunctor returns a ConfirmFunctor that always fails to generate.
type alwaysFailingConfirmFunctor struct{}

func (a *alwaysFailingConfirmFunctor) Generate(
	_ context.Context, _ uint64, _ evm.OnchainClient, _ common.Address,
) (evm.ConfirmFunc, error) {
	return nil, assert.AnError
}
