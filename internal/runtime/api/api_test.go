package api_test

import (
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/runtime/api"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btc = oracle.Asset{Blockchain: "Bitcoin", Symbol: "BTC"}

type discardEvents struct{}

func (discardEvents) Deposit(types.Event) {}

func account(tag byte) types.AccountID {
	var id types.AccountID
	id[0] = tag
	return id
}

func u128(value uint64) *scale.Uint128 {
	return scale.MustNewUint128(new(big.Int).SetUint64(value))
}

func testGenesis(submitter types.AccountID) *runtime.Genesis {
	doc := fmt.Sprintf(`{
		"chain_name": "dia-test",
		"modules": {
			"System": {},
			"Timestamp": {},
			"Balances": {"balances": [{"account": %q, "free": 1000}]},
			"Session": {"validators": [%q], "period": 10},
			"Sudo": {"key": %q},
			"DiaOracle": {
				"authorized_accounts": [%q],
				"supported_assets": [{"blockchain": "Bitcoin", "symbol": "BTC"}],
				"min_quorum": 1,
				"window_blocks": 5
			}
		}
	}`, submitter, submitter, submitter, submitter)

	genesis := new(runtime.Genesis)
	if err := json.Unmarshal([]byte(doc), genesis); err != nil {
		panic(err)
	}
	return genesis
}

// newTestAPI retains a genesis snapshot at block 0 and a snapshot at block 5
// carrying one finalized BTC price, so historical and latest queries can be
// told apart.
func newTestAPI(t *testing.T, submitter types.AccountID) *api.API {
	t.Helper()

	chainRuntime, err := runtime.NewDiaRuntime()
	require.NoError(t, err)

	genesisState := state.NewTrieState()
	require.NoError(t, chainRuntime.BuildGenesis(testGenesis(submitter), genesisState))

	oracleModule, ok := chainRuntime.ModuleByIndex(runtime.OracleModuleIndex)
	require.True(t, ok)

	later := genesisState.Snapshot()
	args, err := scale.Marshal([]oracle.PriceEntry{{
		Asset:     btc,
		Name:      "Bitcoin",
		Price:     u128(100),
		Supply:    u128(21),
		Timestamp: 42,
	}})
	require.NoError(t, err)
	ctx := &modules.CallContext{
		Origin:      modules.SignedOrigin(submitter),
		BlockNumber: 5,
		State:       later,
		Events:      discardEvents{},
	}
	require.NoError(t, oracleModule.Calls()[oracle.CallSubmitPrices].Fn(ctx, args))
	oracleModule.OnFinalize(&modules.HookContext{BlockNumber: 5, State: later, Events: discardEvents{}})

	snapshots := state.NewSnapshots(8)
	snapshots.Keep(0, genesisState)
	snapshots.Keep(5, later)
	return api.New(snapshots, api.DefaultVersion())
}

func blockRef(number uint32) *uint32 {
	return &number
}

func TestPriceForAssetLatestAndHistorical(t *testing.T) {
	runtimeAPI := newTestAPI(t, account(1))

	info, found, err := runtimeAPI.PriceForAsset(nil, btc)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0, u128(100).Compare(info.Price))
	assert.Equal(t, uint32(5), info.UpdatedAt)

	// at block 0 no window has finalized yet
	_, found, err = runtimeAPI.PriceForAsset(blockRef(0), btc)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPriceForAssetUnknownAsset(t *testing.T) {
	runtimeAPI := newTestAPI(t, account(1))

	_, found, err := runtimeAPI.PriceForAsset(nil, oracle.Asset{Blockchain: "Ripple", Symbol: "XRP"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueriesOutsideRetentionFail(t *testing.T) {
	runtimeAPI := newTestAPI(t, account(1))

	_, _, err := runtimeAPI.PriceForAsset(blockRef(3), btc)
	assert.Error(t, err)
}

func TestAccountQueries(t *testing.T) {
	submitter := account(1)
	runtimeAPI := newTestAPI(t, submitter)

	nonce, err := runtimeAPI.AccountNonce(nil, submitter)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), nonce)

	free, err := runtimeAPI.FreeBalance(nil, submitter)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), free)

	free, err = runtimeAPI.FreeBalance(nil, account(9))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), free)
}

func TestRegistryQueries(t *testing.T) {
	submitter := account(1)
	runtimeAPI := newTestAPI(t, submitter)

	assets, err := runtimeAPI.SupportedAssets(nil)
	require.NoError(t, err)
	assert.Equal(t, []oracle.Asset{btc}, assets)

	submitters, err := runtimeAPI.AuthorizedSubmitters(nil)
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{submitter}, submitters)

	authorities, err := runtimeAPI.Authorities(nil)
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{submitter}, authorities)
}

func TestVersionListsQuerySurface(t *testing.T) {
	runtimeAPI := newTestAPI(t, account(1))

	version := runtimeAPI.Version()
	assert.Equal(t, "dia-chain", version.SpecName)
	assert.Contains(t, version.APIs, "OracleApi_price_for_asset")
}
