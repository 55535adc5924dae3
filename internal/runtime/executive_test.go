package runtime_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go-dia-chain/internal/modules/balances"
	"go-dia-chain/internal/modules/system"
	"go-dia-chain/internal/modules/timestamp"
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceEndowment = uint64(1_000_000)
	bobEndowment   = uint64(500_000)

	// fee of a transfer under DefaultConfig: base 100 + weight 100 * 1
	transferFee = uint64(200)
)

type testChain struct {
	runtime      *runtime.Runtime
	executive    *runtime.Executive
	genesisState *state.TrieState
	genesisHash  common.Hash
	alice        *types.Keyring
	bob          *types.Keyring
}

func newTestChain(t *testing.T, config runtime.Config) *testChain {
	t.Helper()

	alice, err := types.NewKeyringFromSeed("//Alice")
	require.NoError(t, err)
	bob, err := types.NewKeyringFromSeed("//Bob")
	require.NoError(t, err)

	chainRuntime, err := runtime.NewDiaRuntime()
	require.NoError(t, err)

	genesis := &runtime.Genesis{
		ChainName: "test",
		Modules: map[string]json.RawMessage{
			"System":    json.RawMessage(`{}`),
			"Timestamp": json.RawMessage(`{}`),
			"Balances": json.RawMessage(fmt.Sprintf(
				`{"balances":[{"account":%q,"free":%d},{"account":%q,"free":%d}]}`,
				alice.Account(), aliceEndowment, bob.Account(), bobEndowment,
			)),
			"Session": json.RawMessage(fmt.Sprintf(
				`{"validators":[%q],"period":10}`, alice.Account(),
			)),
			"Sudo": json.RawMessage(fmt.Sprintf(`{"key":%q}`, alice.Account())),
			"DiaOracle": json.RawMessage(fmt.Sprintf(
				`{"authorized_accounts":[%q],"supported_assets":[{"blockchain":"Bitcoin","symbol":"BTC"}],"min_quorum":1,"window_blocks":5}`,
				bob.Account(),
			)),
		},
	}

	genesisState := state.NewTrieState()
	require.NoError(t, chainRuntime.BuildGenesis(genesis, genesisState))

	genesisHeader, err := runtime.GenesisHeader(genesisState)
	require.NoError(t, err)
	genesisHash, err := genesisHeader.Hash()
	require.NoError(t, err)
	chainRuntime.SetGenesisHash(genesisHash)

	return &testChain{
		runtime:      chainRuntime,
		executive:    runtime.NewExecutive(chainRuntime, config),
		genesisState: genesisState,
		genesisHash:  genesisHash,
		alice:        alice,
		bob:          bob,
	}
}

func (tc *testChain) timestampInherent(t *testing.T, now uint64) types.Extrinsic {
	t.Helper()
	args, err := scale.Marshal(now)
	require.NoError(t, err)
	return types.Extrinsic{
		Version: types.ExtrinsicVersion,
		Call: types.Call{
			ModuleIndex:   runtime.TimestampModuleIndex,
			FunctionIndex: timestamp.CallSet,
			Args:          args,
		},
	}
}

func (tc *testChain) signedTransfer(
	t *testing.T,
	from *types.Keyring,
	nonce uint32,
	dest types.AccountID,
	value uint64,
) types.Extrinsic {
	t.Helper()
	args, err := scale.Marshal(balances.TransferArgs{Dest: dest, Value: value})
	require.NoError(t, err)
	ext, err := from.Sign(types.Call{
		ModuleIndex:   runtime.BalancesModuleIndex,
		FunctionIndex: balances.CallTransfer,
		Args:          args,
	}, nonce, tc.genesisHash)
	require.NoError(t, err)
	return *ext
}

func TestBuildBlockTransferMovesFunds(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		tc.signedTransfer(t, tc.alice, 0, tc.bob.Account(), 10_000),
	}
	result, block, deferred, dropped, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)
	require.Empty(t, deferred)
	require.Empty(t, dropped)
	require.Len(t, block.Extrinsics, 2)

	post := result.PostState
	assert.Equal(t, aliceEndowment-10_000-transferFee, balances.Free(post, tc.alice.Account()))
	assert.Equal(t, bobEndowment+10_000, balances.Free(post, tc.bob.Account()))
	assert.Equal(t, uint32(1), system.Nonce(post, tc.alice.Account()))
	assert.Equal(t, uint64(1000), timestamp.Now(post))

	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[1].Success)
	assert.Equal(t, transferFee, result.Outcomes[1].Fee)

	// the genesis state itself stays untouched
	assert.Equal(t, aliceEndowment, balances.Free(tc.genesisState, tc.alice.Account()))
}

func TestFailedDispatchStillChargesFeeAndNonce(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	// more than alice owns: the transfer handler fails after validation
	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		tc.signedTransfer(t, tc.alice, 0, tc.bob.Account(), aliceEndowment*2),
	}
	result, block, _, dropped, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)
	require.Empty(t, dropped, "a failed dispatch is an on chain outcome, not a rejection")
	require.Len(t, block.Extrinsics, 2)

	post := result.PostState
	assert.Equal(t, aliceEndowment-transferFee, balances.Free(post, tc.alice.Account()))
	assert.Equal(t, bobEndowment, balances.Free(post, tc.bob.Account()))
	assert.Equal(t, uint32(1), system.Nonce(post, tc.alice.Account()))

	require.Len(t, result.Outcomes, 2)
	outcome := result.Outcomes[1]
	assert.False(t, outcome.Success)
	assert.ErrorIs(t, outcome.DispatchError, balances.ErrInsufficientBalance)
	assert.Equal(t, transferFee, outcome.Fee)

	var sawFailed bool
	for _, event := range result.Events {
		if event.Module == system.ModuleName && event.Variant == system.EventExtrinsicFailed {
			sawFailed = true
		}
	}
	assert.True(t, sawFailed)
}

func TestRejectedExtrinsicLeavesNoTrace(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		// nonce 5 on a fresh account is a rejection
		tc.signedTransfer(t, tc.alice, 5, tc.bob.Account(), 10_000),
	}
	result, block, deferred, dropped, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)
	require.Empty(t, deferred)
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0].Reason, runtime.ErrNonceMismatch)
	require.Len(t, block.Extrinsics, 1)

	post := result.PostState
	assert.Equal(t, aliceEndowment, balances.Free(post, tc.alice.Account()))
	assert.Equal(t, uint32(0), system.Nonce(post, tc.alice.Account()))
}

func TestInsufficientFeeBalanceIsRejected(t *testing.T) {
	config := runtime.DefaultConfig()
	config.BaseFee = aliceEndowment * 2
	tc := newTestChain(t, config)

	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		tc.signedTransfer(t, tc.alice, 0, tc.bob.Account(), 1),
	}
	result, _, _, dropped, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0].Reason, runtime.ErrInsufficientFeeBalance)
	assert.Equal(t, aliceEndowment, balances.Free(result.PostState, tc.alice.Account()))
}

func TestWeightLimitDefersExtrinsics(t *testing.T) {
	config := runtime.DefaultConfig()
	// room for the timestamp inherent (10) plus two transfers (100 each)
	config.BlockWeightLimit = 250
	tc := newTestChain(t, config)

	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		tc.signedTransfer(t, tc.alice, 0, tc.bob.Account(), 10),
		tc.signedTransfer(t, tc.alice, 1, tc.bob.Account(), 10),
		tc.signedTransfer(t, tc.alice, 2, tc.bob.Account(), 10),
	}
	result, block, deferred, dropped, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, deferred, 1)
	require.Len(t, block.Extrinsics, 3)
	assert.Equal(t, uint64(210), result.WeightUsed)
}

func TestSignedInherentIsRejected(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	args, err := scale.Marshal(uint64(1000))
	require.NoError(t, err)
	signedInherent, err := tc.alice.Sign(types.Call{
		ModuleIndex:   runtime.TimestampModuleIndex,
		FunctionIndex: timestamp.CallSet,
		Args:          args,
	}, 0, tc.genesisHash)
	require.NoError(t, err)

	candidates := []types.Extrinsic{tc.timestampInherent(t, 1000), *signedInherent}
	_, _, _, dropped, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0].Reason, runtime.ErrSignedInherent)
}

func TestExecuteBlockReplaysBitIdentical(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		tc.signedTransfer(t, tc.alice, 0, tc.bob.Account(), 10_000),
		tc.signedTransfer(t, tc.bob, 0, tc.alice.Account(), 2_500),
	}
	authored, block, _, _, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)

	replayed, err := tc.executive.ExecuteBlock(tc.genesisState, block)
	require.NoError(t, err)

	assert.Equal(t, authored.Header.StateRoot, replayed.PostState.Root())
	assert.Equal(t, authored.Events, replayed.Events)
	assert.Equal(t, authored.Outcomes, replayed.Outcomes)
	assert.Equal(t, authored.WeightUsed, replayed.WeightUsed)
}

func TestExecuteBlockRejectsTamperedHeader(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	candidates := []types.Extrinsic{
		tc.timestampInherent(t, 1000),
		tc.signedTransfer(t, tc.alice, 0, tc.bob.Account(), 10_000),
	}
	_, block, _, _, err := tc.executive.BuildBlock(tc.genesisState, tc.genesisHash, 1, candidates)
	require.NoError(t, err)

	block.Header.StateRoot = common.Hash{0xde, 0xad}
	_, err = tc.executive.ExecuteBlock(tc.genesisState, block)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state root mismatch")
}

func TestExecuteBlockRejectsBadNonceOrder(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	// a block containing a rejectable extrinsic fails replay wholesale
	block := &types.Block{
		Header: types.Header{Number: 1},
		Extrinsics: []types.Extrinsic{
			tc.timestampInherent(t, 1000),
			tc.signedTransfer(t, tc.alice, 7, tc.bob.Account(), 1),
		},
	}
	_, err := tc.executive.ExecuteBlock(tc.genesisState, block)
	require.Error(t, err)
	assert.True(t, errors.Is(err, runtime.ErrNonceMismatch))
}
