// Package session owns the validator set and rotates it at fixed block
// periods. Consensus reads the current authority list through the read only
// queries; only this module's block hook mutates it.
package session

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
	ModuleName = "Session"

	itemValidators       = "Validators"
	itemQueuedValidators = "QueuedValidators"
	itemCurrentIndex     = "CurrentIndex"
	itemPeriod           = "Period"

	CallSetValidators uint8 = 0

	EventNewSession = "NewSession"
)

var ErrEmptyValidatorSet = errors.New("validator set cannot be empty")

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
		CallSetValidators: {
			Name:   "set_validators",
			Weight: 100,
			Fn:     m.setValidators,
		},
	}
}

// OnInitialize rotates the session on period boundaries. A queued validator
// set becomes active only here, never mid session.
func (m *Module) OnInitialize(ctx *modules.HookContext) {
	period := Period(ctx.State)
	if period == 0 || ctx.BlockNumber == 0 || ctx.BlockNumber%period != 0 {
		return
	}

	if queued := queuedValidators(ctx.State); len(queued) > 0 {
		setValidators(ctx.State, queued)
		ctx.State.Delete(modules.StorageKey(ModuleName, itemQueuedValidators))
	}

	next := CurrentIndex(ctx.State) + 1
	enc, err := scale.Marshal(next)
	if err != nil {
		panic(err)
	}
	ctx.State.Set(modules.StorageKey(ModuleName, itemCurrentIndex), enc)

	payload, err := scale.Marshal(next)
	if err != nil {
		panic(err)
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventNewSession, Payload: payload})
}

func (m *Module) OnFinalize(ctx *modules.HookContext) {}

func (m *Module) BuildGenesis(section json.RawMessage, s state.Writer) error {
	var parsed struct {
		Validators []string `json:"validators"`
		Period     uint32   `json:"period"`
	}
	if err := json.Unmarshal(section, &parsed); err != nil {
		return fmt.Errorf("session genesis: %w", err)
	}
	if len(parsed.Validators) == 0 {
		return fmt.Errorf("session genesis: %w", ErrEmptyValidatorSet)
	}

	validators := make([]types.AccountID, 0, len(parsed.Validators))
	for _, hexValidator := range parsed.Validators {
		raw, err := common.HexToBytes(hexValidator)
		if err != nil {
			return fmt.Errorf("session genesis validator %q: %w", hexValidator, err)
		}
		validator, err := types.AccountIDFromBytes(raw)
		if err != nil {
			return fmt.Errorf("session genesis validator %q: %w", hexValidator, err)
		}
		validators = append(validators, validator)
	}
	setValidators(s, validators)

	encPeriod, err := scale.Marshal(parsed.Period)
	if err != nil {
		return err
	}
	s.Set(modules.StorageKey(ModuleName, itemPeriod), encPeriod)

	encIndex, err := scale.Marshal(uint32(0))
	if err != nil {
		return err
	}
	s.Set(modules.StorageKey(ModuleName, itemCurrentIndex), encIndex)
	return nil
}

// setValidators queues a replacement validator set, applied at the next
// session boundary. Root only.
func (m *Module) setValidators(ctx *modules.CallContext, args []byte) error {
	if err := ctx.Origin.EnsureRoot(); err != nil {
		return err
	}

	var queued []types.AccountID
	if err := scale.Unmarshal(args, &queued); err != nil {
		return err
	}
	if len(queued) == 0 {
		return ErrEmptyValidatorSet
	}

	enc, err := scale.Marshal(queued)
	if err != nil {
		return err
	}
	ctx.State.Set(modules.StorageKey(ModuleName, itemQueuedValidators), enc)
	return nil
}

// Validators returns the active validator set, which doubles as the Aura
// and Grandpa authority list of this runtime.
func Validators(s state.Reader) []types.AccountID {
	raw := s.Get(modules.StorageKey(ModuleName, itemValidators))
	if raw == nil {
		return nil
	}
	var validators []types.AccountID
	if err := scale.Unmarshal(raw, &validators); err != nil {
		return nil
	}
	return validators
}

// CurrentIndex returns the session counter.
func CurrentIndex(s state.Reader) uint32 {
	raw := s.Get(modules.StorageKey(ModuleName, itemCurrentIndex))
	if raw == nil {
		return 0
	}
	var index uint32
	if err := scale.Unmarshal(raw, &index); err != nil {
		return 0
	}
	return index
}

// Period returns the session length in blocks.
func Period(s state.Reader) uint32 {
	raw := s.Get(modules.StorageKey(ModuleName, itemPeriod))
	if raw == nil {
		return 0
	}
	var period uint32
	if err := scale.Unmarshal(raw, &period); err != nil {
		return 0
	}
	return period
}

func setValidators(s state.Writer, validators []types.AccountID) {
	enc, err := scale.Marshal(validators)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemValidators), enc)
}

func queuedValidators(s state.Reader) []types.AccountID {
	raw := s.Get(modules.StorageKey(ModuleName, itemQueuedValidators))
	if raw == nil {
		return nil
	}
	var queued []types.AccountID
	if err := scale.Unmarshal(raw, &queued); err != nil {
		return nil
	}
	return queued
}
