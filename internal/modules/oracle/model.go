package oracle

import (
	"sort"

	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

type (
	// Asset identifies one price feed: a blockchain plus a symbol, e.g.
	// ("Bitcoin", "BTC"). Fiat feeds use the "FIAT" blockchain.
	Asset struct {
		Blockchain string
		Symbol     string
	}

	// CoinInfo is the finalized price record of one asset. Price and Supply
	// are u128 fixed point values with twelve decimals.
	CoinInfo struct {
		Symbol              string
		Name                string
		Blockchain          string
		Supply              *scale.Uint128
		LastUpdateTimestamp uint64
		Price               *scale.Uint128
		UpdatedAt           uint32
		Contributors        []types.AccountID
	}

	// PendingSubmission is one submitter's observation inside the current
	// submission window. One entry per submitter per asset; a resubmission
	// overwrites the previous value.
	PendingSubmission struct {
		Submitter types.AccountID
		Name      string
		Price     *scale.Uint128
		Supply    *scale.Uint128
		Timestamp uint64
	}

	// PriceEntry is one element of the submit_prices call arguments.
	PriceEntry struct {
		Asset     Asset
		Name      string
		Price     *scale.Uint128
		Supply    *scale.Uint128
		Timestamp uint64
	}
)

func (a Asset) encode() []byte {
	enc, err := scale.Marshal(a)
	if err != nil {
		panic(err)
	}
	return enc
}

// Price returns the finalized record for an asset. The second return value
// is false while the asset has never reached quorum; callers must treat that
// as unknown, never as a zero price.
func Price(s state.Reader, asset Asset) (CoinInfo, bool) {
	raw := s.Get(modules.StorageMapKey(ModuleName, itemCoinInfo, asset.encode()))
	if raw == nil {
		return CoinInfo{}, false
	}
	var info CoinInfo
	if err := scale.Unmarshal(raw, &info); err != nil {
		return CoinInfo{}, false
	}
	return info, true
}

func setCoinInfo(s state.Writer, asset Asset, info CoinInfo) {
	enc, err := scale.Marshal(info)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageMapKey(ModuleName, itemCoinInfo, asset.encode()), enc)
}

// SupportedAssets returns the sorted list of assets accepting submissions.
func SupportedAssets(s state.Reader) []Asset {
	raw := s.Get(modules.StorageKey(ModuleName, itemSupportedAssets))
	if raw == nil {
		return nil
	}
	var assets []Asset
	if err := scale.Unmarshal(raw, &assets); err != nil {
		return nil
	}
	return assets
}

func setSupportedAssets(s state.Writer, assets []Asset) {
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Blockchain != assets[j].Blockchain {
			return assets[i].Blockchain < assets[j].Blockchain
		}
		return assets[i].Symbol < assets[j].Symbol
	})
	enc, err := scale.Marshal(assets)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemSupportedAssets), enc)
}

func isSupported(s state.Reader, asset Asset) bool {
	for _, supported := range SupportedAssets(s) {
		if supported == asset {
			return true
		}
	}
	return false
}

// AuthorizedAccounts returns the submitter registry active for the current
// submission window, sorted by account id.
func AuthorizedAccounts(s state.Reader) []types.AccountID {
	return readAccountList(s, modules.StorageKey(ModuleName, itemAuthorized))
}

func isAuthorized(s state.Reader, who types.AccountID) bool {
	for _, account := range AuthorizedAccounts(s) {
		if account == who {
			return true
		}
	}
	return false
}

func setAuthorizedAccounts(s state.Writer, accounts []types.AccountID) {
	sortAccounts(accounts)
	enc, err := scale.Marshal(accounts)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemAuthorized), enc)
}

// queuedAuthorizedAccounts returns the registry staged for the next window,
// falling back to the active registry when no change is queued.
func queuedAuthorizedAccounts(s state.Reader) ([]types.AccountID, bool) {
	raw := s.Get(modules.StorageKey(ModuleName, itemQueuedAuthorized))
	if raw == nil {
		return AuthorizedAccounts(s), false
	}
	var accounts []types.AccountID
	if err := scale.Unmarshal(raw, &accounts); err != nil {
		return AuthorizedAccounts(s), false
	}
	return accounts, true
}

func setQueuedAuthorizedAccounts(s state.Writer, accounts []types.AccountID) {
	sortAccounts(accounts)
	enc, err := scale.Marshal(accounts)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageKey(ModuleName, itemQueuedAuthorized), enc)
}

func readAccountList(s state.Reader, key []byte) []types.AccountID {
	raw := s.Get(key)
	if raw == nil {
		return nil
	}
	var accounts []types.AccountID
	if err := scale.Unmarshal(raw, &accounts); err != nil {
		return nil
	}
	return accounts
}

func sortAccounts(accounts []types.AccountID) {
	sort.Slice(accounts, func(i, j int) bool {
		return string(accounts[i][:]) < string(accounts[j][:])
	})
}

func pendingSubmissions(s state.Reader, asset Asset) []PendingSubmission {
	raw := s.Get(modules.StorageMapKey(ModuleName, itemPending, asset.encode()))
	if raw == nil {
		return nil
	}
	var pending []PendingSubmission
	if err := scale.Unmarshal(raw, &pending); err != nil {
		return nil
	}
	return pending
}

func setPendingSubmissions(s state.Writer, asset Asset, pending []PendingSubmission) {
	sort.Slice(pending, func(i, j int) bool {
		return string(pending[i].Submitter[:]) < string(pending[j].Submitter[:])
	})
	enc, err := scale.Marshal(pending)
	if err != nil {
		panic(err)
	}
	s.Set(modules.StorageMapKey(ModuleName, itemPending, asset.encode()), enc)
}

// BatchingAPI returns the configured batching server endpoint.
func BatchingAPI(s state.Reader) []byte {
	return s.Get(modules.StorageKey(ModuleName, itemBatchingAPI))
}

// MinQuorum returns the minimum number of independent submitters required
// before a pending window can finalize.
func MinQuorum(s state.Reader) uint32 {
	raw := s.Get(modules.StorageKey(ModuleName, itemMinQuorum))
	if raw == nil {
		return 0
	}
	var quorum uint32
	if err := scale.Unmarshal(raw, &quorum); err != nil {
		return 0
	}
	return quorum
}

// WindowBlocks returns the length of a submission window in blocks.
func WindowBlocks(s state.Reader) uint32 {
	raw := s.Get(modules.StorageKey(ModuleName, itemWindowBlocks))
	if raw == nil {
		return 0
	}
	var window uint32
	if err := scale.Unmarshal(raw, &window); err != nil {
		return 0
	}
	return window
}

// median returns the middle of the sorted values, taking the lower middle
// for an even count so the result is always one of the submitted values.
func median(values []*scale.Uint128) *scale.Uint128 {
	sorted := make([]*scale.Uint128, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})
	return sorted[(len(sorted)-1)/2]
}
