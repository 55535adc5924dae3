package oracle

import (
	"go-dia-chain/internal/modules"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// finalizeWindow aggregates every pending asset at the submission window
// boundary. Assets below quorum keep their prior finalized record and emit
// InsufficientQuorum; the pending set of an aggregated asset is cleared.
func (m *Module) finalizeWindow(ctx *modules.HookContext) {
	quorum := MinQuorum(ctx.State)
	pendingPrefix := modules.StorageKey(ModuleName, itemPending)

	// KeysWithPrefix returns keys in ascending byte order, so aggregation
	// order is identical on every validator.
	for _, key := range ctx.State.KeysWithPrefix(pendingPrefix) {
		var asset Asset
		if err := scale.Unmarshal(key[len(pendingPrefix):], &asset); err != nil {
			panic(err)
		}

		pending := pendingSubmissions(ctx.State, asset)
		if len(pending) == 0 {
			continue
		}

		if uint32(len(pending)) < quorum {
			payload, err := scale.Marshal(struct {
				Asset     Asset
				Submitted uint32
				Required  uint32
			}{asset, uint32(len(pending)), quorum})
			if err != nil {
				panic(err)
			}
			ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventInsufficientQuorum, Payload: payload})
			continue
		}

		info := aggregate(asset, pending, ctx.BlockNumber)
		setCoinInfo(ctx.State, asset, info)
		ctx.State.Delete(key)

		payload, err := scale.Marshal(struct {
			Asset Asset
			Price *scale.Uint128
		}{asset, info.Price})
		if err != nil {
			panic(err)
		}
		ctx.Events.Deposit(types.Event{Module: ModuleName, Variant: EventPriceFinalized, Payload: payload})
	}
}

// aggregate folds a quorum of pending submissions into one CoinInfo. The
// price is the median of the submitted values: no outlier trimming, the
// median alone bounds any single submitter's influence.
func aggregate(asset Asset, pending []PendingSubmission, blockNumber uint32) CoinInfo {
	prices := make([]*scale.Uint128, 0, len(pending))
	supplies := make([]*scale.Uint128, 0, len(pending))
	contributors := make([]types.AccountID, 0, len(pending))
	var latest uint64
	name := ""

	for _, submission := range pending {
		prices = append(prices, submission.Price)
		supplies = append(supplies, submission.Supply)
		contributors = append(contributors, submission.Submitter)
		if submission.Timestamp > latest {
			latest = submission.Timestamp
		}
		if name == "" {
			name = submission.Name
		}
	}
	sortAccounts(contributors)

	return CoinInfo{
		Symbol:              asset.Symbol,
		Name:                name,
		Blockchain:          asset.Blockchain,
		Supply:              median(supplies),
		LastUpdateTimestamp: latest,
		Price:               median(prices),
		UpdatedAt:           blockNumber,
		Contributors:        contributors,
	}
}
