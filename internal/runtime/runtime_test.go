package runtime_test

import (
	"encoding/json"
	"testing"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/modules/system"
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardEvents struct{}

func (discardEvents) Deposit(types.Event) {}

func TestNewRejectsDuplicateModuleIndex(t *testing.T) {
	_, err := runtime.New(system.New(0), oracle.New(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module index 0")
}

func TestNewRejectsDuplicateStoragePrefix(t *testing.T) {
	_, err := runtime.New(system.New(0), system.New(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage prefix collision")
}

func TestDiaRuntimeComposition(t *testing.T) {
	chainRuntime, err := runtime.NewDiaRuntime()
	require.NoError(t, err)
	require.Len(t, chainRuntime.Modules(), 6)

	module, ok := chainRuntime.ModuleByIndex(runtime.OracleModuleIndex)
	require.True(t, ok)
	assert.Equal(t, oracle.ModuleName, module.Name())

	_, ok = chainRuntime.ModuleByIndex(99)
	assert.False(t, ok)
}

func TestDispatchCallUnknownIndices(t *testing.T) {
	chainRuntime, err := runtime.NewDiaRuntime()
	require.NoError(t, err)

	ctx := &modules.CallContext{
		Origin: modules.RootOrigin(),
		State:  state.NewTrieState(),
		Events: discardEvents{},
	}
	err = chainRuntime.DispatchCall(ctx, types.Call{ModuleIndex: 99, FunctionIndex: 0})
	assert.ErrorIs(t, err, runtime.ErrUnknownCall)

	err = chainRuntime.DispatchCall(ctx, types.Call{ModuleIndex: runtime.SystemModuleIndex, FunctionIndex: 200})
	assert.ErrorIs(t, err, runtime.ErrUnknownCall)
}

func TestRenderListsEveryModule(t *testing.T) {
	chainRuntime, err := runtime.NewDiaRuntime()
	require.NoError(t, err)

	rendered := chainRuntime.Render()
	for _, module := range chainRuntime.Modules() {
		assert.Contains(t, rendered, module.Name())
	}
	assert.Contains(t, rendered, "submit_prices")
	assert.Contains(t, rendered, "inherent")
}

func TestBuildGenesisRequiresEverySection(t *testing.T) {
	chainRuntime, err := runtime.NewDiaRuntime()
	require.NoError(t, err)

	genesis := &runtime.Genesis{
		ChainName: "test",
		Modules: map[string]json.RawMessage{
			"System": json.RawMessage(`{}`),
		},
	}
	err = chainRuntime.BuildGenesis(genesis, state.NewTrieState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the required section")
}

func TestBuildGenesisRejectsBadSection(t *testing.T) {
	tc := newTestChain(t, runtime.DefaultConfig())

	genesis := &runtime.Genesis{
		ChainName: "test",
		Modules: map[string]json.RawMessage{
			"System":    json.RawMessage(`{}`),
			"Timestamp": json.RawMessage(`{}`),
			"Balances":  json.RawMessage(`{}`),
			"Session":   json.RawMessage(`{"validators":[],"period":10}`),
			"Sudo":      json.RawMessage(`{"key":"0x00"}`),
			"DiaOracle": json.RawMessage(`{"min_quorum":1,"window_blocks":5}`),
		},
	}
	err := tc.runtime.BuildGenesis(genesis, state.NewTrieState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session")
}
