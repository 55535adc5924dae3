// Package oracle is the price oracle pallet. Authorized submitters feed
// per asset observations during a submission window; at the window boundary
// the pending set is aggregated into the canonical on chain price record,
// provided enough independent submitters contributed.
package oracle

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
	ModuleName = "DiaOracle"

	itemAuthorized       = "AuthorizedAccounts"
	itemQueuedAuthorized = "QueuedAuthorizedAccounts"
	itemSupportedAssets  = "SupportedAssets"
	itemCoinInfo         = "CoinInfos"
	itemPending          = "Pending"
	itemBatchingAPI      = "BatchingApi"
	itemMinQuorum        = "MinQuorum"
	itemWindowBlocks     = "WindowBlocks"

	CallSubmitPrices       uint8 = 0
	CallAddAsset           uint8 = 1
	CallRemoveAsset        uint8 = 2
	CallAuthorizeAccount   uint8 = 3
	CallDeauthorizeAccount uint8 = 4
	CallSetBatchingAPI     uint8 = 5

	EventPriceFinalized      = "PriceFinalized"
	EventInsufficientQuorum  = "InsufficientQuorum"
	EventAccountAuthorized   = "AccountAuthorized"
	EventAccountDeauthorized = "AccountDeauthorized"
	EventAssetAdded          = "AssetAdded"
	EventAssetRemoved        = "AssetRemoved"
	EventBatchingAPISet      = "BatchingApiSet"
)

var (
	ErrUnauthorized      = errors.New("origin is not an authorized submitter")
	ErrStaleSubmission   = errors.New("submission is older than the finalized record")
	ErrUnsupportedAsset  = errors.New("asset is not in the supported set")
	ErrEmptyBatch        = errors.New("price batch is empty")
	ErrAlreadyAuthorized = errors.New("account is already authorized")
	ErrNotAuthorized     = errors.New("account is not in the submitter registry")
	ErrAssetExists       = errors.New("asset is already supported")
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
		CallSubmitPrices:       {Name: "submit_prices", Weight: 500, Fn: m.submitPrices},
		CallAddAsset:           {Name: "add_asset", Weight: 100, Fn: m.addAsset},
		CallRemoveAsset:        {Name: "remove_asset", Weight: 100, Fn: m.removeAsset},
		CallAuthorizeAccount:   {Name: "authorize_account", Weight: 100, Fn: m.authorizeAccount},
		CallDeauthorizeAccount: {Name: "deauthorize_account", Weight: 100, Fn: m.deauthorizeAccount},
		CallSetBatchingAPI:     {Name: "set_batching_api", Weight: 50, Fn: m.setBatchingAPI},
	}
}

func (m *Module) OnInitialize(ctx *modules.HookContext) {}

// OnFinalize closes the submission window on window boundaries: every
// pending asset is aggregated (or left untouched below quorum) and queued
// registry changes become active for the next window.
func (m *Module) OnFinalize(ctx *modules.HookContext) {
	window := WindowBlocks(ctx.State)
	if window == 0 || ctx.BlockNumber == 0 || ctx.BlockNumber%window != 0 {
		return
	}

	m.finalizeWindow(ctx)

	if queued, changed := queuedAuthorizedAccounts(ctx.State); changed {
		setAuthorizedAccounts(ctx.State, queued)
		ctx.State.Delete(modules.StorageKey(ModuleName, itemQueuedAuthorized))
	}
}

func (m *Module) BuildGenesis(section json.RawMessage, s state.Writer) error {
	var parsed struct {
		AuthorizedAccounts []string `json:"authorized_accounts"`
		SupportedAssets    []struct {
			Blockchain string `json:"blockchain"`
			Symbol     string `json:"symbol"`
		} `json:"supported_assets"`
		MinQuorum    uint32 `json:"min_quorum"`
		WindowBlocks uint32 `json:"window_blocks"`
	}
	if err := json.Unmarshal(section, &parsed); err != nil {
		return fmt.Errorf("oracle genesis: %w", err)
	}
	if parsed.MinQuorum == 0 {
		return fmt.Errorf("oracle genesis: min_quorum must be at least 1")
	}
	if parsed.WindowBlocks == 0 {
		return fmt.Errorf("oracle genesis: window_blocks must be at least 1")
	}

	accounts := make([]types.AccountID, 0, len(parsed.AuthorizedAccounts))
	for _, hexAccount := range parsed.AuthorizedAccounts {
		raw, err := common.HexToBytes(hexAccount)
		if err != nil {
			return fmt.Errorf("oracle genesis account %q: %w", hexAccount, err)
		}
		account, err := types.AccountIDFromBytes(raw)
		if err != nil {
			return fmt.Errorf("oracle genesis account %q: %w", hexAccount, err)
		}
		accounts = append(accounts, account)
	}
	setAuthorizedAccounts(s, accounts)

	assets := make([]Asset, 0, len(parsed.SupportedAssets))
	for _, asset := range parsed.SupportedAssets {
		assets = append(assets, Asset{Blockchain: asset.Blockchain, Symbol: asset.Symbol})
	}
	setSupportedAssets(s, assets)

	encQuorum, err := scale.Marshal(parsed.MinQuorum)
	if err != nil {
		return err
	}
	s.Set(modules.StorageKey(ModuleName, itemMinQuorum), encQuorum)

	encWindow, err := scale.Marshal(parsed.WindowBlocks)
	if err != nil {
		return err
	}
	s.Set(modules.StorageKey(ModuleName, itemWindowBlocks), encWindow)
	return nil
}

// submitPrices appends a batch of observations to the pending sets. The
// batch is atomic: one unauthorized, unsupported or stale entry fails the
// whole call and the dispatch engine reverts any partial writes.
func (m *Module) submitPrices(ctx *modules.CallContext, args []byte) error {
	signer, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}
	if !isAuthorized(ctx.State, signer) {
		return ErrUnauthorized
	}

	var entries []PriceEntry
	if err := scale.Unmarshal(args, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrEmptyBatch
	}

	for _, entry := range entries {
		if !isSupported(ctx.State, entry.Asset) {
			return fmt.Errorf("%w: %s/%s", ErrUnsupportedAsset, entry.Asset.Blockchain, entry.Asset.Symbol)
		}
		if finalized, ok := Price(ctx.State, entry.Asset); ok && entry.Timestamp <= finalized.LastUpdateTimestamp {
			return fmt.Errorf("%w: %s/%s", ErrStaleSubmission, entry.Asset.Blockchain, entry.Asset.Symbol)
		}
	}

	for _, entry := range entries {
		pending := pendingSubmissions(ctx.State, entry.Asset)
		submission := PendingSubmission{
			Submitter: signer,
			Name:      entry.Name,
			Price:     entry.Price,
			Supply:    entry.Supply,
			Timestamp: entry.Timestamp,
		}

		replaced := false
		for i := range pending {
			// one submitter, one vote per window: resubmission overwrites
			if pending[i].Submitter == signer {
				pending[i] = submission
				replaced = true
				break
			}
		}
		if !replaced {
			pending = append(pending, submission)
		}
		setPendingSubmissions(ctx.State, entry.Asset, pending)
	}
	return nil
}

// addAsset registers a new supported asset. Authorized submitters and root
// may call it.
func (m *Module) addAsset(ctx *modules.CallContext, args []byte) error {
	if err := m.ensureAuthorizedOrRoot(ctx); err != nil {
		return err
	}

	var asset Asset
	if err := scale.Unmarshal(args, &asset); err != nil {
		return err
	}

	assets := SupportedAssets(ctx.State)
	for _, existing := range assets {
		if existing == asset {
			return ErrAssetExists
		}
	}
	setSupportedAssets(ctx.State, append(assets, asset))

	payload, err := scale.Marshal(asset)
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventAssetAdded, Payload: payload})
	return nil
}

func (m *Module) removeAsset(ctx *modules.CallContext, args []byte) error {
	if err := m.ensureAuthorizedOrRoot(ctx); err != nil {
		return err
	}

	var asset Asset
	if err := scale.Unmarshal(args, &asset); err != nil {
		return err
	}

	assets := SupportedAssets(ctx.State)
	kept := assets[:0]
	found := false
	for _, existing := range assets {
		if existing == asset {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return ErrUnsupportedAsset
	}
	setSupportedAssets(ctx.State, kept)
	ctx.State.Delete(modules.StorageMapKey(ModuleName, itemPending, asset.encode()))

	payload, err := scale.Marshal(asset)
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventAssetRemoved, Payload: payload})
	return nil
}

// authorizeAccount adds a submitter to the registry, effective from the
// next submission window so an in flight window keeps its quorum base.
// Root only.
func (m *Module) authorizeAccount(ctx *modules.CallContext, args []byte) error {
	if err := ctx.Origin.EnsureRoot(); err != nil {
		return err
	}

	var account types.AccountID
	if err := scale.Unmarshal(args, &account); err != nil {
		return err
	}

	queued, _ := queuedAuthorizedAccounts(ctx.State)
	for _, existing := range queued {
		if existing == account {
			return ErrAlreadyAuthorized
		}
	}
	setQueuedAuthorizedAccounts(ctx.State, append(queued, account))

	payload, err := scale.Marshal(account)
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventAccountAuthorized, Payload: payload})
	return nil
}

func (m *Module) deauthorizeAccount(ctx *modules.CallContext, args []byte) error {
	if err := ctx.Origin.EnsureRoot(); err != nil {
		return err
	}

	var account types.AccountID
	if err := scale.Unmarshal(args, &account); err != nil {
		return err
	}

	queued, _ := queuedAuthorizedAccounts(ctx.State)
	kept := queued[:0]
	found := false
	for _, existing := range queued {
		if existing == account {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return ErrNotAuthorized
	}
	setQueuedAuthorizedAccounts(ctx.State, kept)

	payload, err := scale.Marshal(account)
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventAccountDeauthorized, Payload: payload})
	return nil
}

func (m *Module) setBatchingAPI(ctx *modules.CallContext, args []byte) error {
	if err := m.ensureAuthorizedOrRoot(ctx); err != nil {
		return err
	}

	var api []byte
	if err := scale.Unmarshal(args, &api); err != nil {
		return err
	}
	ctx.State.Set(modules.StorageKey(ModuleName, itemBatchingAPI), api)

	payload, err := scale.Marshal(api)
	if err != nil {
		return err
	}
	ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventBatchingAPISet, Payload: payload})
	return nil
}

func (m *Module) ensureAuthorizedOrRoot(ctx *modules.CallContext) error {
	if ctx.Origin.IsRoot() {
		return nil
	}
	signer, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}
	if !isAuthorized(ctx.State, signer) {
		return ErrUnauthorized
	}
	return nil
}
