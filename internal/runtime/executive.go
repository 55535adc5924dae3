package runtime

import (
	"errors"
	"fmt"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/modules/balances"
	"go-dia-chain/internal/modules/system"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
)

// Rejection errors: the extrinsic never reaches a module, nothing is
// charged and nothing is recorded on chain.
var (
	ErrUnknownCall            = errors.New("no dispatchable registered for call index")
	ErrNonceMismatch          = errors.New("extrinsic nonce does not match account nonce")
	ErrInsufficientFeeBalance = errors.New("account cannot pay the dispatch fee")
	ErrExhaustsResources      = errors.New("extrinsic weight exceeds the remaining block capacity")
	ErrSignedInherent         = errors.New("inherent call must not be signed")
	ErrInvalidInherent        = errors.New("inherent application failed")
)

// Config bounds a block and prices dispatch.
type Config struct {
	BlockWeightLimit uint64
	BaseFee          uint64
	FeePerWeight     uint64
}

func DefaultConfig() Config {
	return Config{
		BlockWeightLimit: 10_000,
		BaseFee:          100,
		FeePerWeight:     1,
	}
}

// Executive is the dispatch engine: it validates and routes extrinsics,
// charges fees, accounts weight and keeps per extrinsic state changes
// atomic. All state mutation during block execution flows through it.
type Executive struct {
	runtime *Runtime
	config  Config
}

func NewExecutive(runtime *Runtime, config Config) *Executive {
	return &Executive{runtime: runtime, config: config}
}

// DispatchOutcome is the recorded result of one applied extrinsic. A failed
// dispatch is a routine, billable outcome: the fee stays charged and the
// nonce stays advanced.
type DispatchOutcome struct {
	Index         uint32
	Success       bool
	DispatchError error
	Weight        uint64
	Fee           uint64
}

// ExecutionResult carries everything produced by executing one block.
type ExecutionResult struct {
	Header     types.Header
	PostState  *state.TrieState
	Events     []types.Event
	Outcomes   []DispatchOutcome
	WeightUsed uint64
}

// eventLog is the per block append only event sink. A checkpoint taken
// before a call handler runs lets a failed dispatch drop the events the
// handler deposited.
type eventLog struct {
	events []types.Event
}

func (l *eventLog) Deposit(event types.Event) {
	l.events = append(l.events, event)
}

func (l *eventLog) checkpoint() int {
	return len(l.events)
}

func (l *eventLog) truncate(mark int) {
	l.events = l.events[:mark]
}

// applyExtrinsic validates and dispatches one extrinsic against the block
// state. A returned error is a rejection; a DispatchOutcome with Success
// false is an on chain failure.
//
// Validation order for signed extrinsics: signature, nonce, weight capacity,
// fee balance. Only after all four pass are the fee debit and nonce bump
// written, so a rejected extrinsic leaves no trace in state.
func (e *Executive) applyExtrinsic(
	working *state.TrieState,
	events *eventLog,
	blockNumber uint32,
	index uint32,
	ext *types.Extrinsic,
	weightUsed *uint64,
) (DispatchOutcome, error) {
	handler, err := e.runtime.handlerFor(ext.Call)
	if err != nil {
		return DispatchOutcome{}, err
	}

	if !ext.IsSigned() {
		return e.applyInherent(working, events, blockNumber, index, ext, handler, weightUsed)
	}
	if handler.Inherent {
		return DispatchOutcome{}, ErrSignedInherent
	}

	signer, err := types.VerifyExtrinsic(ext, e.runtime.genesisHash)
	if err != nil {
		return DispatchOutcome{}, err
	}

	expected := system.Nonce(working, signer)
	if ext.Signature.Nonce != expected {
		return DispatchOutcome{}, fmt.Errorf("%w: expected %d, got %d",
			ErrNonceMismatch, expected, ext.Signature.Nonce)
	}

	if *weightUsed+handler.Weight > e.config.BlockWeightLimit {
		return DispatchOutcome{}, ErrExhaustsResources
	}

	fee := e.config.BaseFee + handler.Weight*e.config.FeePerWeight
	if balances.Free(working, signer) < fee {
		return DispatchOutcome{}, ErrInsufficientFeeBalance
	}

	// Past the rejection line: fee and nonce are charged regardless of the
	// call outcome, directly against the block state.
	if err := balances.Withdraw(working, signer, fee); err != nil {
		return DispatchOutcome{}, err
	}
	system.IncNonce(working, signer)
	*weightUsed += handler.Weight

	overlay := state.NewOverlay(working)
	mark := events.checkpoint()
	callCtx := &modules.CallContext{
		Origin:      modules.SignedOrigin(signer),
		BlockNumber: blockNumber,
		State:       overlay,
		Events:      events,
	}

	outcome := DispatchOutcome{Index: index, Weight: handler.Weight, Fee: fee}
	if dispatchErr := handler.Fn(callCtx, ext.Call.Args); dispatchErr != nil {
		overlay.Discard()
		events.truncate(mark)
		events.Deposit(system.NewExtrinsicFailedEvent(index, dispatchErr))
		outcome.DispatchError = dispatchErr
		return outcome, nil
	}

	overlay.Commit()
	events.Deposit(system.NewExtrinsicSuccessEvent(index))
	outcome.Success = true
	return outcome, nil
}

// applyInherent applies an unsigned inherent placed by the block author.
// Inherents carry no fee and no nonce; a failing inherent is an authoring
// defect and rejects the extrinsic.
func (e *Executive) applyInherent(
	working *state.TrieState,
	events *eventLog,
	blockNumber uint32,
	index uint32,
	ext *types.Extrinsic,
	handler modules.CallHandler,
	weightUsed *uint64,
) (DispatchOutcome, error) {
	if !handler.Inherent {
		return DispatchOutcome{}, types.ErrUnsignedCall
	}
	if *weightUsed+handler.Weight > e.config.BlockWeightLimit {
		return DispatchOutcome{}, ErrExhaustsResources
	}

	overlay := state.NewOverlay(working)
	mark := events.checkpoint()
	callCtx := &modules.CallContext{
		Origin:      modules.NoneOrigin(),
		BlockNumber: blockNumber,
		State:       overlay,
		Events:      events,
	}

	if err := handler.Fn(callCtx, ext.Call.Args); err != nil {
		overlay.Discard()
		events.truncate(mark)
		return DispatchOutcome{}, fmt.Errorf("%w: %s", ErrInvalidInherent, err)
	}

	overlay.Commit()
	*weightUsed += handler.Weight
	events.Deposit(system.NewExtrinsicSuccessEvent(index))
	return DispatchOutcome{Index: index, Success: true, Weight: handler.Weight}, nil
}

// runBlock executes hooks and extrinsics over a snapshot of the parent
// state and returns the working state plus everything recorded.
func (e *Executive) runBlock(
	parent *state.TrieState,
	blockNumber uint32,
	extrinsics []types.Extrinsic,
) (*state.TrieState, *eventLog, []DispatchOutcome, uint64, error) {
	working := parent.Snapshot()
	events := new(eventLog)

	hookCtx := &modules.HookContext{BlockNumber: blockNumber, State: working, Events: events}
	for _, module := range e.runtime.modules {
		module.OnInitialize(hookCtx)
	}

	var (
		weightUsed uint64
		outcomes   []DispatchOutcome
	)
	for i := range extrinsics {
		outcome, err := e.applyExtrinsic(working, events, blockNumber, uint32(i), &extrinsics[i], &weightUsed)
		if err != nil {
			return nil, nil, nil, 0, fmt.Errorf("extrinsic %d rejected: %w", i, err)
		}
		outcomes = append(outcomes, outcome)
	}

	// on_finalize unwinds in reverse declaration order, so dependents
	// finalize before their dependencies.
	for i := len(e.runtime.modules) - 1; i >= 0; i-- {
		e.runtime.modules[i].OnFinalize(hookCtx)
	}

	return working, events, outcomes, weightUsed, nil
}

// ExecuteBlock replays a sealed block against its parent state and verifies
// the header commitments. Every validating node reaches a bit identical
// post state and event log or rejects the block.
func (e *Executive) ExecuteBlock(parent *state.TrieState, block *types.Block) (*ExecutionResult, error) {
	working, events, outcomes, weightUsed, err := e.runBlock(parent, block.Header.Number, block.Extrinsics)
	if err != nil {
		return nil, err
	}

	stateRoot := working.Root()
	if stateRoot != block.Header.StateRoot {
		return nil, fmt.Errorf("state root mismatch at block %d: computed %s, header %s",
			block.Header.Number, stateRoot, block.Header.StateRoot)
	}
	extrinsicsRoot, err := types.ExtrinsicsRoot(block.Extrinsics)
	if err != nil {
		return nil, err
	}
	if extrinsicsRoot != block.Header.ExtrinsicsRoot {
		return nil, fmt.Errorf("extrinsics root mismatch at block %d", block.Header.Number)
	}

	return &ExecutionResult{
		Header:     block.Header,
		PostState:  working,
		Events:     events.events,
		Outcomes:   outcomes,
		WeightUsed: weightUsed,
	}, nil
}

// DroppedExtrinsic is a candidate excluded from an authored block together
// with its rejection reason.
type DroppedExtrinsic struct {
	Extrinsic types.Extrinsic
	Reason    error
}

// BuildBlock authors a block: candidates are applied in order, candidates
// rejected for anything but weight capacity are dropped, and once the
// weight limit is reached the remainder is deferred to the next block.
func (e *Executive) BuildBlock(
	parent *state.TrieState,
	parentHash common.Hash,
	blockNumber uint32,
	candidates []types.Extrinsic,
) (*ExecutionResult, *types.Block, []types.Extrinsic, []DroppedExtrinsic, error) {
	var (
		included []types.Extrinsic
		deferred []types.Extrinsic
		dropped  []DroppedExtrinsic
	)

	// Select the extrinsics that fit by trial application, then run the
	// block once more over the selection so hooks and events are produced
	// exactly as a replaying validator will produce them.
	selecting := parent.Snapshot()
	events := new(eventLog)
	hookCtx := &modules.HookContext{BlockNumber: blockNumber, State: selecting, Events: events}
	for _, module := range e.runtime.modules {
		module.OnInitialize(hookCtx)
	}

	var weightUsed uint64
	exhausted := false
	for i := range candidates {
		if exhausted {
			deferred = append(deferred, candidates[i])
			continue
		}
		_, err := e.applyExtrinsic(selecting, events, blockNumber, uint32(len(included)), &candidates[i], &weightUsed)
		if err != nil {
			if errors.Is(err, ErrExhaustsResources) {
				exhausted = true
				deferred = append(deferred, candidates[i])
				continue
			}
			dropped = append(dropped, DroppedExtrinsic{Extrinsic: candidates[i], Reason: err})
			continue
		}
		included = append(included, candidates[i])
	}

	working, finalEvents, outcomes, finalWeight, err := e.runBlock(parent, blockNumber, included)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("authored block failed replay: %w", err)
	}

	extrinsicsRoot, err := types.ExtrinsicsRoot(included)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	header := types.Header{
		ParentHash:     parentHash,
		Number:         blockNumber,
		StateRoot:      working.Root(),
		ExtrinsicsRoot: extrinsicsRoot,
	}
	block := &types.Block{Header: header, Extrinsics: included}

	result := &ExecutionResult{
		Header:     header,
		PostState:  working,
		Events:     finalEvents.events,
		Outcomes:   outcomes,
		WeightUsed: finalWeight,
	}
	return result, block, deferred, dropped, nil
}
