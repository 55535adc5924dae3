package balances

import (
	"encoding/json"
	"fmt"
	"math"
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

func newTestBalances(t *testing.T, who types.AccountID, free uint64) (*Module, *state.TrieState) {
	t.Helper()
	module := New(2)
	s := state.NewTrieState()
	section := fmt.Sprintf(`{"balances":[{"account":%q,"free":%d}]}`, who, free)
	require.NoError(t, module.BuildGenesis(json.RawMessage(section), s))
	return module, s
}

func transferArgs(t *testing.T, dest types.AccountID, value uint64) []byte {
	t.Helper()
	args, err := scale.Marshal(TransferArgs{Dest: dest, Value: value})
	require.NoError(t, err)
	return args
}

func TestTransferMovesFunds(t *testing.T) {
	module, s := newTestBalances(t, account(1), 1000)

	recorder := &eventRecorder{}
	ctx := &modules.CallContext{
		Origin: modules.SignedOrigin(account(1)),
		State:  s,
		Events: recorder,
	}
	require.NoError(t, module.transfer(ctx, transferArgs(t, account(2), 300)))

	assert.Equal(t, uint64(700), Free(s, account(1)))
	assert.Equal(t, uint64(300), Free(s, account(2)))
	require.Len(t, recorder.events, 1)
	assert.Equal(t, EventTransfer, recorder.events[0].Variant)
}

func TestTransferRejectsOverdraw(t *testing.T) {
	module, s := newTestBalances(t, account(1), 100)

	ctx := &modules.CallContext{
		Origin: modules.SignedOrigin(account(1)),
		State:  s,
		Events: &eventRecorder{},
	}
	err := module.transfer(ctx, transferArgs(t, account(2), 101))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(100), Free(s, account(1)))
	assert.Equal(t, uint64(0), Free(s, account(2)))
}

func TestTransferRequiresSignedOrigin(t *testing.T) {
	module, s := newTestBalances(t, account(1), 100)

	ctx := &modules.CallContext{
		Origin: modules.RootOrigin(),
		State:  s,
		Events: &eventRecorder{},
	}
	err := module.transfer(ctx, transferArgs(t, account(2), 10))
	assert.ErrorIs(t, err, modules.ErrBadOrigin)
}

func TestWithdrawFailsWithoutMutation(t *testing.T) {
	_, s := newTestBalances(t, account(1), 50)

	assert.ErrorIs(t, Withdraw(s, account(1), 51), ErrInsufficientBalance)
	assert.Equal(t, uint64(50), Free(s, account(1)))

	require.NoError(t, Withdraw(s, account(1), 50))
	assert.Equal(t, uint64(0), Free(s, account(1)))
}

func TestDepositDetectsOverflow(t *testing.T) {
	_, s := newTestBalances(t, account(1), math.MaxUint64)

	assert.ErrorIs(t, Deposit(s, account(1), 1), ErrBalanceOverflow)
	assert.Equal(t, uint64(math.MaxUint64), Free(s, account(1)))
}
