// Package balances owns account balances and funds the fee accounting of
// the dispatch engine.
package balances

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
	ModuleName = "Balances"

	itemFree = "FreeBalance"

	CallTransfer uint8 = 0

	EventTransfer = "Transfer"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
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
		CallTransfer: {
			Name:   "transfer",
			Weight: 100,
			Fn:     m.transfer,
		},
	}
}

func (m *Module) OnInitialize(ctx *modules.HookContext) {}
func (m *Module) OnFinalize(ctx *modules.HookContext)   {}

func (m *Module) BuildGenesis(section json.RawMessage, s state.Writer) error {
	var parsed struct {
		Balances []struct {
			Account string `json:"account"`
			Free    uint64 `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(section, &parsed); err != nil {
		return fmt.Errorf("balances genesis: %w", err)
	}

	for _, endowment := range parsed.Balances {
		raw, err := common.HexToBytes(endowment.Account)
		if err != nil {
			return fmt.Errorf("balances genesis account %q: %w", endowment.Account, err)
		}
		account, err := types.AccountIDFromBytes(raw)
		if err != nil {
			return fmt.Errorf("balances genesis account %q: %w", endowment.Account, err)
		}
		setFree(s, account, endowment.Free)
	}
	return nil
}

// TransferArgs are the SCALE encoded arguments of the transfer call.
type TransferArgs struct {
	Dest  types.AccountID
	Value uint64
}

func (m *Module) transfer(ctx *modules.CallContext, args []byte) error {
	signer, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}

	var transfer TransferArgs
	if err := scale.Unmarshal(args, &transfer); err != nil {
		return err
	}

	if err := Withdraw(ctx.State, signer, transfer.Value); err != nil {
		return err
	}
	if err := Deposit(ctx.State, transfer.Dest, transfer.Value); err != nil {
		return err
	}

	payload, err := scale.Marshal(struct {
		From  types.AccountID
		To    types.AccountID
		Value uint64
	}{signer, transfer.Dest, transfer.Value})
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventTransfer, Payload: payload})
	return nil
}

// Free returns the free balance of an account, zero if it has none.
func Free(s state.Reader, who types.AccountID) uint64 {
	raw := s.Get(modules.StorageMapKey(ModuleName, itemFree, who[:]))
	if raw == nil {
		return 0
	}
	var free uint64
	if err := scale.Unmarshal(raw, &free); err != nil {
		return 0
	}
	return free
}

// Withdraw removes value from an account, failing without mutation when the
// balance does not cover it.
func Withdraw(s state.Writer, who types.AccountID, value uint64) error {
	free := Free(s, who)
	if free < value {
		return ErrInsufficientBalance
	}
	setFree(s, who, free-value)
	return nil
}

// Deposit adds value to an account.
func Deposit(s state.Writer, who types.AccountID, value uint64) error {
	free := Free(s, who)
	if free+value < free {
		return ErrBalanceOverflow
	}
	setFree(s, who, free+value)
	return nil
}

func setFree(s state.Writer, who types.AccountID, value uint64) {
	enc, err := scale.Marshal(value)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageMapKey(ModuleName, itemFree, who[:]), enc)
}
