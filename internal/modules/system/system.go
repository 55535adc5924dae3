// Package system owns the base chain bookkeeping: account nonces, the
// current block number and the extrinsic outcome events the dispatch engine
// deposits.
package system

import (
	"encoding/json"
	"fmt"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

const (
	ModuleName = "System"

	itemNonce  = "Nonce"
	itemNumber = "Number"

	CallRemark uint8 = 0

	EventExtrinsicSuccess = "ExtrinsicSuccess"
	EventExtrinsicFailed  = "ExtrinsicFailed"
	EventRemarked         = "Remarked"
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
		CallRemark: {
			Name:   "remark",
			Weight: 10,
			Fn:     m.remark,
		},
	}
}

func (m *Module) OnInitialize(ctx *modules.HookContext) {
	SetBlockNumber(ctx.State, ctx.BlockNumber)
}

func (m *Module) OnFinalize(ctx *modules.HookContext) {}

type genesisSection struct{}

func (m *Module) BuildGenesis(section json.RawMessage, s state.Writer) error {
	var parsed genesisSection
	if err := json.Unmarshal(section, &parsed); err != nil {
		return fmt.Errorf("system genesis: %w", err)
	}
	SetBlockNumber(s, 0)
	return nil
}

// remark accepts arbitrary bytes from any signed account and records them in
// an event. Useful as a benign call for fee and nonce accounting.
func (m *Module) remark(ctx *modules.CallContext, args []byte) error {
	signer, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}

	var remark []byte
	if err := scale.Unmarshal(args, &remark); err != nil {
		return err
	}

	digest, err := common.Blake2bHash(remark)
	if err != nil {
		return err
	}
	payload, err := scale.Marshal(struct {
		Who    types.AccountID
		Digest common.Hash
	}{signer, digest})
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventRemarked, Payload: payload})
	return nil
}

// Nonce returns the next expected nonce of an account.
func Nonce(s state.Reader, who types.AccountID) uint32 {
	raw := s.Get(modules.StorageMapKey(ModuleName, itemNonce, who[:]))
	if raw == nil {
		return 0
	}
	var nonce uint32
	if err := scale.Unmarshal(raw, &nonce); err != nil {
		return 0
	}
	return nonce
}

// IncNonce advances an account's nonce by one.
func IncNonce(s state.Writer, who types.AccountID) {
	next := Nonce(s, who) + 1
	enc, err := scale.Marshal(next)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageMapKey(ModuleName, itemNonce, who[:]), enc)
}

// BlockNumber returns the block currently being executed (or the last
// executed one when read from a snapshot).
func BlockNumber(s state.Reader) uint32 {
	raw := s.Get(modules.StorageKey(ModuleName, itemNumber))
	if raw == nil {
		return 0
	}
	var number uint32
	if err := scale.Unmarshal(raw, &number); err != nil {
		return 0
	}
	return number
}

func SetBlockNumber(s state.Writer, number uint32) {
	enc, err := scale.Marshal(number)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemNumber), enc)
}

// NewExtrinsicSuccessEvent builds the top level success event for the
// extrinsic at the given index in the block.
func NewExtrinsicSuccessEvent(index uint32) types.Event {
	payload, _ := scale.Marshal(index)
	return types.Event{Module: ModuleName, Variant: EventExtrinsicSuccess, Payload: payload}
}

// NewExtrinsicFailedEvent builds the top level failure event carrying the
// module error text.
func NewExtrinsicFailedEvent(index uint32, dispatchErr error) types.Event {
	payload, _ := scale.Marshal(struct {
		Index uint32
		Error string
	}{index, dispatchErr.Error()})
	return types.Event{Module: ModuleName, Variant: EventExtrinsicFailed, Payload: payload}
}
