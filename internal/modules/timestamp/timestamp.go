// Package timestamp owns the per block time inherent. The block author
// supplies the value; the runtime itself never reads a wall clock, so replay
// of a block is deterministic on every validator.
package timestamp

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/state"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

const (
	ModuleName = "Timestamp"

	itemNow       = "Now"
	itemDidUpdate = "DidUpdate"

	CallSet uint8 = 0
)

var (
	ErrDoubleSet        = errors.New("timestamp already set in this block")
	ErrNonMonotonic     = errors.New("timestamp must increase between blocks")
	ErrTimestampMissing = errors.New("timestamp inherent missing from block")
)

type Module struct {
	index uint8
}

func New(index uint8) *Module {
	return &Module{index: index}
}

func (m *Module) Name() string { return ModuleName }
func (m *Module) Index() uint8 { return m.index }

func (m *Module) Calls() map[uint8]modules.CallHandler {
	return map[uint8]modules.CallHandler{
		CallSet: {
			Name:     "set",
			Weight:   10,
			Inherent: true,
			Fn:       m.set,
		},
	}
}

func (m *Module) OnInitialize(ctx *modules.HookContext) {}

// OnFinalize clears the per block update flag. A missing timestamp inherent
// is a defect of the block author, surfaced as a panic during execution.
func (m *Module) OnFinalize(ctx *modules.HookContext) {
	if ctx.BlockNumber == 0 {
		return
	}
	if ctx.State.Get(modules.StorageKey(ModuleName, itemDidUpdate)) == nil {
		panic(ErrTimestampMissing)
	}
	ctx.State.Delete(modules.StorageKey(ModuleName, itemDidUpdate))
}

func (m *Module) BuildGenesis(section json.RawMessage, s state.Writer) error {
	var parsed struct{}
	if err := json.Unmarshal(section, &parsed); err != nil {
		return fmt.Errorf("timestamp genesis: %w", err)
	}
	setNow(s, 0)
	return nil
}

func (m *Module) set(ctx *modules.CallContext, args []byte) error {
	if err := ctx.Origin.EnsureNone(); err != nil {
		return err
	}
	if ctx.State.Get(modules.StorageKey(ModuleName, itemDidUpdate)) != nil {
		return ErrDoubleSet
	}

	var now uint64
	if err := scale.Unmarshal(args, &now); err != nil {
		return err
	}
	if now <= Now(ctx.State) && ctx.BlockNumber > 1 {
		return ErrNonMonotonic
	}

	setNow(ctx.State, now)
	ctx.State.Set(modules.StorageKey(ModuleName, itemDidUpdate), []byte{1})
	return nil
}

// Now returns the timestamp of the block being executed, in milliseconds.
func Now(s state.Reader) uint64 {
	raw := s.Get(modules.StorageKey(ModuleName, itemNow))
	if raw == nil {
		return 0
	}
	var now uint64
	if err := scale.Unmarshal(raw, &now); err != nil {
		return 0
	}
	return now
}

func setNow(s state.Writer, now uint64) {
	enc, err := scale.Marshal(now)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemNow), enc)
}
