package provider

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"

	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
)

var _ evm.OnchainClient = (*SimClient)(nil)

// SimClient is a wrapper struct around a simulated backend which implements OnchainClient but
// also exposes backend methods.
type SimClient struct {
	mu sync.Mutex

	// Embed the simulated.Client to provide access to its methods and adhere to the OnchainClient interface.
	simulated.Client
	// sim is the underlying simulated backend that this client wraps.
	sim *simulated.Backend
}

// NewSimClient creates a new SimClient from a simulated backend. The backend is closed when the
// test finishes.
func NewSimClient(t *testing.T, sim *simulated.Backend) *SimClient {
	t.Helper()

	require.NotNil(t, sim, "simulated backend must not be nil")

	t.Cleanup(func() {
		_ = sim.Close()
	})

	return &SimClient{
		sim:    sim,
		Client: sim.Client(),
	}
}

// Commit seals the pending block and returns its hash.
func (b *SimClient) Commit() common.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sim.Commit()
}
