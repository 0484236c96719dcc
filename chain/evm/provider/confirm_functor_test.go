package provider

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// revertingInitCode is creation bytecode whose constructor always reverts with empty data.
var revertingInitCode = common.FromHex("0x60006000fd")

func Test_ConfirmFuncGeth_ConfirmFunc(t *testing.T) {
	t.Parallel()

	// Generate an admin transactor which will be prefunded with some ETH
	adminKey, err := crypto.GenerateKey()
	require.NoError(t, err, "failed to generate admin key")

	adminTransactor, err := bind.NewKeyedTransactorWithChainID(adminKey, simChainID)
	require.NoError(t, err)

	// Generate another user transactor which acts as a recipient
	userKey, err := crypto.GenerateKey()
	require.NoError(t, err, "failed to generate user key")
	userAddr := crypto.PubkeyToAddress(userKey.PublicKey)

	// Prefund the admin account
	genesis := types.GenesisAlloc{
		adminTransactor.From: {Balance: prefundAmountWei},
	}

	tests := []struct {
		name          string
		giveBlockTime time.Duration // Zero means blocks are only mined when giveTx commits.
		giveOpts      []func(*confirmFuncGeth)
		giveTimeout   time.Duration
		giveTx        func(*testing.T, *SimClient) *types.Transaction
		wantDepth     uint64
		wantErr       string
	}{
		{
			name:        "successful confirmation",
			giveTimeout: 1 * time.Second,
			giveTx: func(t *testing.T, client *SimClient) *types.Transaction {
				t.Helper()

				tx := sendTransfer(t, client, adminKey, userAddr)
				client.Commit() // Commit the transaction to the simulated backend

				return tx
			},
		},
		{
			name:          "successful confirmation with depth",
			giveBlockTime: 10 * time.Millisecond,
			giveOpts:      []func(*confirmFuncGeth){WithTickInterval(10 * time.Millisecond), WithConfirmations(3)},
			giveTimeout:   5 * time.Second,
			giveTx: func(t *testing.T, client *SimClient) *types.Transaction {
				t.Helper()

				return sendTransfer(t, client, adminKey, userAddr)
			},
			wantDepth: 3,
		},
		{
			name:        "failed with nil tx",
			giveTimeout: 1 * time.Second,
			giveTx: func(t *testing.T, client *SimClient) *types.Transaction {
				t.Helper()

				return nil
			},
			wantErr: "tx was nil",
		},
		{
			name:        "failed with context deadline exceeded",
			giveOpts:    []func(*confirmFuncGeth){WithTickInterval(10 * time.Millisecond)},
			giveTimeout: 100 * time.Millisecond,
			giveTx: func(t *testing.T, client *SimClient) *types.Transaction {
				t.Helper()

				// Sent but never mined because nothing commits a block.
				return sendTransfer(t, client, adminKey, userAddr)
			},
			wantErr: "context deadline exceeded",
		},
		{
			name:        "failed with reverted contract creation",
			giveTimeout: 1 * time.Second,
			giveTx: func(t *testing.T, client *SimClient) *types.Transaction {
				t.Helper()

				nonce, err := client.PendingNonceAt(t.Context(), adminTransactor.From)
				require.NoError(t, err)

				gasPrice, err := client.SuggestGasPrice(t.Context())
				require.NoError(t, err)

				// A fixed gas limit skips estimation, which would otherwise reject the revert.
				tx := types.NewContractCreation(nonce, big.NewInt(0), 100_000, gasPrice, revertingInitCode)
				signedTx, err := types.SignTx(tx, types.NewCancunSigner(simChainID), adminKey)
				require.NoError(t, err, "failed to sign transaction")

				require.NoError(t, client.SendTransaction(t.Context(), signedTx))
				client.Commit()

				return signedTx
			},
			wantErr: "reverted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Initialize the simulated backend with the genesis state
			backend := simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50000000))
			backend.Commit() // Commit the genesis block

			// Wrap the backend in a SimClient for easier testing because it has access to more
			// methods.
			client := NewSimClient(t, backend)
			if tt.giveBlockTime > 0 {
				startAutoMine(t, backend, tt.giveBlockTime)
			}

			// Generate the transaction to confirm
			tx := tt.giveTx(t, client)

			// Generate the confirm function
			functor := ConfirmFuncGeth(tt.giveTimeout, tt.giveOpts...)
			confirmFunc, err := functor.Generate(
				t.Context(), chainsel.TEST_1000.Selector, client, adminTransactor.From,
			)
			require.NoError(t, err)

			// Run the confirm function with the transaction
			blockNum, err := confirmFunc(tx)

			if tt.wantErr != "" {
				require.Error(t, err)
				require.ErrorContains(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Positive(t, blockNum)

			if tt.wantDepth > 0 {
				head, err := client.BlockNumber(t.Context())
				require.NoError(t, err)
				assert.GreaterOrEqual(t, head, blockNum+tt.wantDepth-1)
			}
		})
	}
}

func Test_WaitMinedWithInterval(t *testing.T) {
	t.Parallel()

	backend := simulated.NewBackend(types.GenesisAlloc{})
	client := NewSimClient(t, backend)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := WaitMinedWithInterval(ctx, 10*time.Millisecond, client, common.HexToHash("0x01"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// sendTransfer signs and sends a plain value transfer from key to the recipient without mining it.
func sendTransfer(t *testing.T, client *SimClient, key *ecdsa.PrivateKey, to common.Address) *types.Transaction {
	t.Helper()

	from := crypto.PubkeyToAddress(key.PublicKey)

	// Get the nonce
	nonce, err := client.PendingNonceAt(t.Context(), from)
	require.NoError(t, err)

	gasPrice, err := client.SuggestGasPrice(t.Context())
	require.NoError(t, err)

	tx := types.NewTransaction(
		nonce, to, big.NewInt(10000000000000000), 21000, gasPrice, nil,
	)

	signedTx, err := types.SignTx(tx, types.NewCancunSigner(simChainID), key)
	require.NoError(t, err, "failed to sign transaction")

	// Send the transaction
	require.NoError(t, client.SendTransaction(t.Context(), signedTx))

	return signedTx
}
