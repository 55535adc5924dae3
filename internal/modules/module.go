package modules

import (
	"encoding/json"

	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"
)

type (
	// Module is the contract every runtime pallet implements: typed storage
	// under its own prefix, a dispatch table, optional per block hooks and a
	// genesis builder. Modules are registered in an explicit ordered list by
	// the runtime composition.
	Module interface {
		Name() string
		Index() uint8
		Calls() map[uint8]CallHandler
		OnInitialize(ctx *HookContext)
		OnFinalize(ctx *HookContext)
		BuildGenesis(section json.RawMessage, s state.Writer) error
	}

	// CallHandler is one dispatchable function. Weight is the declared cost
	// the dispatch engine charges before invoking Fn. Inherent handlers are
	// only reachable through unsigned inherent extrinsics placed by the
	// block author.
	CallHandler struct {
		Name     string
		Weight   uint64
		Inherent bool
		Fn       func(ctx *CallContext, args []byte) error
	}

	// CallContext carries everything a call handler may touch. State is the
	// per extrinsic overlay, so handler failure reverts cleanly.
	CallContext struct {
		Origin      Origin
		BlockNumber uint32
		State       state.Writer
		Events      EventSink
	}

	// HookContext is the block level context handed to on_initialize and
	// on_finalize.
	HookContext struct {
		BlockNumber uint32
		State       state.Writer
		Events      EventSink
	}

	// EventSink receives events deposited by modules during block execution.
	EventSink interface {
		Deposit(event types.Event)
	}

	// Dispatcher routes a call to its owning module. It is implemented by
	// the runtime composition and injected into modules that dispatch nested
	// calls, such as sudo.
	Dispatcher interface {
		DispatchCall(ctx *CallContext, call types.Call) error
	}
)
