// Package runtime composes the ordered module registry and applies blocks
// of extrinsics to the state store under deterministic dispatch rules.
package runtime

import (
	"encoding/hex"
	"fmt"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/qdm12/gotree"
)

// Runtime is the fixed registry mapping call indices and storage prefixes to
// modules. It is constructed once and never mutated afterwards.
type Runtime struct {
	modules     []modules.Module
	byIndex     map[uint8]modules.Module
	genesisHash common.Hash
}

// New builds the registry from an explicit ordered module list. Hook order
// follows the list: on_initialize ascending, on_finalize descending. A
// duplicate call index or storage prefix is a construction defect, not a
// runtime error.
func New(moduleList ...modules.Module) (*Runtime, error) {
	byIndex := make(map[uint8]modules.Module, len(moduleList))
	byPrefix := make(map[string]string, len(moduleList))

	for _, module := range moduleList {
		if existing, ok := byIndex[module.Index()]; ok {
			return nil, fmt.Errorf("module index %d claimed by both %s and %s",
				module.Index(), existing.Name(), module.Name())
		}
		byIndex[module.Index()] = module

		prefix := string(modules.ModulePrefix(module.Name()))
		if existing, ok := byPrefix[prefix]; ok {
			return nil, fmt.Errorf("storage prefix collision between %s and %s",
				existing, module.Name())
		}
		byPrefix[prefix] = module.Name()
	}

	return &Runtime{
		modules: moduleList,
		byIndex: byIndex,
	}, nil
}

// Modules returns the registry in declared order.
func (r *Runtime) Modules() []modules.Module {
	return r.modules
}

// ModuleByIndex resolves a call index to its owning module.
func (r *Runtime) ModuleByIndex(index uint8) (modules.Module, bool) {
	module, ok := r.byIndex[index]
	return module, ok
}

// SetGenesisHash pins the chain identity used in signature payloads. Set
// once after genesis construction.
func (r *Runtime) SetGenesisHash(hash common.Hash) {
	r.genesisHash = hash
}

func (r *Runtime) GenesisHash() common.Hash {
	return r.genesisHash
}

// DispatchCall routes a validated call to its module handler. Implements
// modules.Dispatcher for nested dispatch (sudo).
func (r *Runtime) DispatchCall(ctx *modules.CallContext, call types.Call) error {
	handler, err := r.handlerFor(call)
	if err != nil {
		return err
	}
	return handler.Fn(ctx, call.Args)
}

func (r *Runtime) handlerFor(call types.Call) (modules.CallHandler, error) {
	module, ok := r.byIndex[call.ModuleIndex]
	if !ok {
		return modules.CallHandler{}, fmt.Errorf("%w: module index %d", ErrUnknownCall, call.ModuleIndex)
	}
	handler, ok := module.Calls()[call.FunctionIndex]
	if !ok {
		return modules.CallHandler{}, fmt.Errorf("%w: %s function index %d",
			ErrUnknownCall, module.Name(), call.FunctionIndex)
	}
	return handler, nil
}

// Render returns the composition as a printable tree: modules in hook
// order with their call tables and storage prefixes.
func (r *Runtime) Render() string {
	root := gotree.New("Runtime")
	for _, module := range r.modules {
		moduleNode := root.Appendf("%s (index %d)", module.Name(), module.Index())
		moduleNode.Appendf("storage prefix 0x%s", hex.EncodeToString(modules.ModulePrefix(module.Name())))
		callsNode := moduleNode.Appendf("calls")
		calls := module.Calls()
		for fn := 0; fn < 256; fn++ {
			handler, ok := calls[uint8(fn)]
			if !ok {
				continue
			}
			kind := "signed"
			if handler.Inherent {
				kind = "inherent"
			}
			callsNode.Appendf("%d: %s (weight %d, %s)", fn, handler.Name, handler.Weight, kind)
		}
	}
	return root.String()
}
