package timestamp

import (
	"encoding/json"
	"testing"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardEvents struct{}

func (discardEvents) Deposit(types.Event) {}

func newTestTimestamp(t *testing.T) (*Module, *state.TrieState) {
	t.Helper()
	module := New(1)
	s := state.NewTrieState()
	require.NoError(t, module.BuildGenesis(json.RawMessage(`{}`), s))
	return module, s
}

func setArgs(t *testing.T, now uint64) []byte {
	t.Helper()
	args, err := scale.Marshal(now)
	require.NoError(t, err)
	return args
}

func setCtx(s *state.TrieState, blockNumber uint32) *modules.CallContext {
	return &modules.CallContext{
		Origin:      modules.NoneOrigin(),
		BlockNumber: blockNumber,
		State:       s,
		Events:      discardEvents{},
	}
}

func TestSetRecordsNow(t *testing.T) {
	module, s := newTestTimestamp(t)

	require.NoError(t, module.set(setCtx(s, 1), setArgs(t, 1000)))
	assert.Equal(t, uint64(1000), Now(s))
}

func TestSetRejectsSignedOrigin(t *testing.T) {
	module, s := newTestTimestamp(t)

	ctx := setCtx(s, 1)
	ctx.Origin = modules.SignedOrigin(types.AccountID{1})
	assert.ErrorIs(t, module.set(ctx, setArgs(t, 1000)), modules.ErrBadOrigin)
}

func TestSetRejectsSecondUpdateInBlock(t *testing.T) {
	module, s := newTestTimestamp(t)

	require.NoError(t, module.set(setCtx(s, 1), setArgs(t, 1000)))
	assert.ErrorIs(t, module.set(setCtx(s, 1), setArgs(t, 2000)), ErrDoubleSet)
}

func TestSetEnforcesMonotonicityAfterFirstBlock(t *testing.T) {
	module, s := newTestTimestamp(t)

	require.NoError(t, module.set(setCtx(s, 1), setArgs(t, 1000)))
	module.OnFinalize(&modules.HookContext{BlockNumber: 1, State: s, Events: discardEvents{}})

	assert.ErrorIs(t, module.set(setCtx(s, 2), setArgs(t, 1000)), ErrNonMonotonic)
	assert.ErrorIs(t, module.set(setCtx(s, 2), setArgs(t, 900)), ErrNonMonotonic)
	require.NoError(t, module.set(setCtx(s, 2), setArgs(t, 1001)))
}

func TestOnFinalizePanicsWithoutInherent(t *testing.T) {
	module, s := newTestTimestamp(t)

	hook := &modules.HookContext{BlockNumber: 1, State: s, Events: discardEvents{}}
	assert.PanicsWithError(t, ErrTimestampMissing.Error(), func() {
		module.OnFinalize(hook)
	})

	// block zero carries no inherent and must not panic
	module.OnFinalize(&modules.HookContext{BlockNumber: 0, State: s, Events: discardEvents{}})
}
