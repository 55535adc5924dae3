// Package sudo holds the privileged governance key and dispatches nested
// calls with the root origin on its behalf.
package sudo

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

const (
	ModuleName = "Sudo"

	itemKey = "Key"

	CallSudo   uint8 = 0
	CallSetKey uint8 = 1

	EventSudid      = "Sudid"
	EventKeyChanged = "KeyChanged"
)

var ErrRequireSudo = errors.New("sender is not the sudo key")

type Module struct {
	index      uint8
	dispatcher modules.Dispatcher
}

func New(index uint8) *Module {
	return &Module{index: index}
}

// SetDispatcher injects the runtime's call router. Wired by the runtime
// composition after all modules are registered.
func (m *Module) SetDispatcher(dispatcher modules.Dispatcher) {
	m.dispatcher = dispatcher
}

func (m *Module) Name() string { return ModuleName }
func (m *Module) Index() uint8 { return m.index }

func (m *Module) Calls() map[uint8]modules.CallHandler {
	return map[uint8]modules.CallHandler{
		CallSudo: {
			Name:   "sudo",
			Weight: 100,
			Fn:     m.sudo,
		},
		CallSetKey: {
			Name:   "set_key",
			Weight: 50,
			Fn:     m.setKey,
		},
	}
}

func (m *Module) OnInitialize(ctx *modules.HookContext) {}
func (m *Module) OnFinalize(ctx *modules.HookContext)   {}

func (m *Module) BuildGenesis(section json.RawMessage, s state.Writer) error {
	var parsed struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(section, &parsed); err != nil {
		return fmt.Errorf("sudo genesis: %w", err)
	}
	raw, err := common.HexToBytes(parsed.Key)
	if err != nil {
		return fmt.Errorf("sudo genesis key %q: %w", parsed.Key, err)
	}
	key, err := types.AccountIDFromBytes(raw)
	if err != nil {
		return fmt.Errorf("sudo genesis key %q: %w", parsed.Key, err)
	}
	setKey(s, key)
	return nil
}

// sudo dispatches the wrapped call as root when signed by the sudo key. The
// outcome of the inner call is reported through the Sudid event; an inner
// failure does not fail the sudo extrinsic itself.
func (m *Module) sudo(ctx *modules.CallContext, args []byte) error {
	signer, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}
	if signer != Key(ctx.State) {
		return ErrRequireSudo
	}

	var inner types.Call
	if err := scale.Unmarshal(args, &inner); err != nil {
		return err
	}

	// the inner call gets its own overlay so a failing call cannot leak
	// partial writes into the sudo extrinsic's state
	overlay := state.NewOverlay(ctx.State)
	innerCtx := &modules.CallContext{
		Origin:      modules.RootOrigin(),
		BlockNumber: ctx.BlockNumber,
		State:       overlay,
		Events:      ctx.Events,
	}
	dispatchErr := m.dispatcher.DispatchCall(innerCtx, inner)
	if dispatchErr != nil {
		overlay.Discard()
	} else {
		overlay.Commit()
	}

	result := struct {
		Ok    bool
		Error string
	}{Ok: dispatchErr == nil}
	if dispatchErr != nil {
		result.Error = dispatchErr.Error()
	}
	payload, err := scale.Marshal(result)
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventSudid, Payload: payload})
	return nil
}

func (m *Module) setKey(ctx *modules.CallContext, args []byte) error {
	signer, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}
	if signer != Key(ctx.State) {
		return ErrRequireSudo
	}

	var newKey types.AccountID
	if err := scale.Unmarshal(args, &newKey); err != nil {
		return err
	}
	setKey(ctx.State, newKey)

	payload, err := scale.Marshal(struct {
		Old types.AccountID
		New types.AccountID
	}{signer, newKey})
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventKeyChanged, Payload: payload})
	return nil
}

// Key returns the current sudo key.
func Key(s state.Reader) types.AccountID {
	raw := s.Get(modules.StorageKey(ModuleName, itemKey))
	if raw == nil {
		return types.AccountID{}
	}
	var key types.AccountID
	if err := scale.Unmarshal(raw, &key); err != nil {
		return types.AccountID{}
	}
	return key
}

func setKey(s state.Writer, key types.AccountID) {
	enc, err := scale.Marshal(key)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemKey), enc)
}
