package session

import (
	"encoding/json"
	"fmt"
	"testing"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	events []types.Event
}

func (r *eventRecorder) Deposit(event types.Event) {
	r.events = append(r.events, event)
}

func account(tag byte) types.AccountID {
	var id types.AccountID
	id[0] = tag
	return id
}

func newTestSession(t *testing.T, period uint32, validators ...types.AccountID) (*Module, *state.TrieState) {
	t.Helper()

	list := ""
	for i, validator := range validators {
		if i > 0 {
			list += ","
		}
		list += fmt.Sprintf("%q", validator)
	}
	section := fmt.Sprintf(`{"validators":[%s],"period":%d}`, list, period)

	module := New(3)
	s := state.NewTrieState()
	require.NoError(t, module.BuildGenesis(json.RawMessage(section), s))
	return module, s
}

func TestGenesisRejectsEmptyValidatorSet(t *testing.T) {
	module := New(3)
	err := module.BuildGenesis(json.RawMessage(`{"validators":[],"period":10}`), state.NewTrieState())
	assert.ErrorIs(t, err, ErrEmptyValidatorSet)
}

func TestRotationOnlyAtPeriodBoundary(t *testing.T) {
	module, s := newTestSession(t, 10, account(1))

	recorder := &eventRecorder{}
	module.OnInitialize(&modules.HookContext{BlockNumber: 7, State: s, Events: recorder})

	assert.Equal(t, uint32(0), CurrentIndex(s))
	assert.Empty(t, recorder.events)
}

func TestRotationBumpsIndexAndEmits(t *testing.T) {
	module, s := newTestSession(t, 10, account(1))

	recorder := &eventRecorder{}
	module.OnInitialize(&modules.HookContext{BlockNumber: 10, State: s, Events: recorder})

	assert.Equal(t, uint32(1), CurrentIndex(s))
	require.Len(t, recorder.events, 1)
	assert.Equal(t, EventNewSession, recorder.events[0].Variant)

	// the validator set stays put when nothing was queued
	assert.Equal(t, []types.AccountID{account(1)}, Validators(s))

	module.OnInitialize(&modules.HookContext{BlockNumber: 20, State: s, Events: recorder})
	assert.Equal(t, uint32(2), CurrentIndex(s))
}

func TestQueuedValidatorsApplyAtRotation(t *testing.T) {
	module, s := newTestSession(t, 10, account(1))

	args, err := scale.Marshal([]types.AccountID{account(2), account(3)})
	require.NoError(t, err)
	ctx := &modules.CallContext{
		Origin:      modules.RootOrigin(),
		BlockNumber: 4,
		State:       s,
		Events:      &eventRecorder{},
	}
	require.NoError(t, module.setValidators(ctx, args))

	// mid session the active set is untouched
	assert.Equal(t, []types.AccountID{account(1)}, Validators(s))

	module.OnInitialize(&modules.HookContext{BlockNumber: 10, State: s, Events: &eventRecorder{}})
	assert.Equal(t, []types.AccountID{account(2), account(3)}, Validators(s))

	// the queue is consumed: the next rotation keeps the new set
	module.OnInitialize(&modules.HookContext{BlockNumber: 20, State: s, Events: &eventRecorder{}})
	assert.Equal(t, []types.AccountID{account(2), account(3)}, Validators(s))
}

func TestSetValidatorsRequiresRoot(t *testing.T) {
	module, s := newTestSession(t, 10, account(1))

	args, err := scale.Marshal([]types.AccountID{account(2)})
	require.NoError(t, err)
	ctx := &modules.CallContext{
		Origin: modules.SignedOrigin(account(1)),
		State:  s,
		Events: &eventRecorder{},
	}
	assert.ErrorIs(t, module.setValidators(ctx, args), modules.ErrBadOrigin)
}

func TestSetValidatorsRejectsEmptySet(t *testing.T) {
	module, s := newTestSession(t, 10, account(1))

	args, err := scale.Marshal([]types.AccountID{})
	require.NoError(t, err)
	ctx := &modules.CallContext{
		Origin: modules.RootOrigin(),
		State:  s,
		Events: &eventRecorder{},
	}
	assert.ErrorIs(t, module.setValidators(ctx, args), ErrEmptyValidatorSet)
}
