package pricefeed

import (
	"sort"
	"time"

	"go-dia-chain/internal/config"
	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// Feed polls market data sources and submits the collected quotations to the
// chain as signed submit_prices extrinsics.
type Feed struct {
	client       *NodeClient
	keyring      *types.Keyring
	sources      []Source
	pollInterval time.Duration
}

func NewFeed(feedConfig config.PriceFeedConfig) *Feed {
	keyring, err := types.NewKeyringFromSeed(feedConfig.SignerSeed)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewFeed),
			err,
			messages.PRICEFEED_FAILED_TO_SUBMIT,
		).ConsoleLog()
	}

	sources := []Source{}
	for _, name := range feedConfig.Sources {
		switch name {
		case "binance":
			sources = append(sources, NewBinanceSource())
		case "coingecko":
			sources = append(sources, NewCoinGeckoSource())
		default:
			messages.NewNodeMessage(
				messages.LOG_LEVEL_WARNING,
				"",
				nil,
				messages.PRICEFEED_SOURCE_FAILED,
				name,
			).ConsoleLog()
		}
	}

	return &Feed{
		client:       NewNodeClient(feedConfig.NodeEndpoint),
		keyring:      keyring,
		sources:      sources,
		pollInterval: time.Duration(feedConfig.PollIntervalMs) * time.Millisecond,
	}
}

// Run blocks, polling the sources and submitting one batched extrinsic per
// interval.
func (f *Feed) Run() {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.PRICEFEED_STARTING,
		len(f.sources),
		f.pollInterval.String(),
	).ConsoleLog()

	for {
		f.pollOnce()
		time.Sleep(f.pollInterval)
	}
}

func (f *Feed) pollOnce() {
	assets, err := f.client.SupportedAssets()
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_WARNING,
			messages.GetComponent(f.pollOnce),
			err,
			messages.PRICEFEED_FAILED_TO_SUBMIT,
		).ConsoleLog()
		return
	}
	if len(assets) == 0 {
		return
	}

	quotations := f.collect(assets)
	if len(quotations) == 0 {
		return
	}

	if err := f.submit(quotations); err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_WARNING,
			messages.GetComponent(f.pollOnce),
			err,
			messages.PRICEFEED_FAILED_TO_SUBMIT,
		).ConsoleLog()
	}
}

// collect queries every source and keeps one quotation per asset, first
// source wins. Source order is the configured priority order.
func (f *Feed) collect(assets []oracle.Asset) []Quotation {
	byAsset := map[oracle.Asset]Quotation{}
	for _, source := range f.sources {
		quotations, err := source.Quotations(assets)
		if err != nil {
			messages.NewNodeMessage(
				messages.LOG_LEVEL_WARNING,
				messages.GetComponent(f.collect),
				err,
				messages.PRICEFEED_SOURCE_FAILED,
				source.Name(),
			).ConsoleLog()
			continue
		}
		for _, quotation := range quotations {
			if _, seen := byAsset[quotation.Asset]; !seen {
				byAsset[quotation.Asset] = quotation
			}
		}
	}

	collected := make([]Quotation, 0, len(byAsset))
	for _, quotation := range byAsset {
		collected = append(collected, quotation)
	}
	sort.Slice(collected, func(i, j int) bool {
		if collected[i].Asset.Blockchain != collected[j].Asset.Blockchain {
			return collected[i].Asset.Blockchain < collected[j].Asset.Blockchain
		}
		return collected[i].Asset.Symbol < collected[j].Asset.Symbol
	})
	return collected
}

func (f *Feed) submit(quotations []Quotation) error {
	entries := make([]oracle.PriceEntry, 0, len(quotations))
	for _, quotation := range quotations {
		entries = append(entries, toPriceEntry(quotation))
	}

	args, err := scale.Marshal(entries)
	if err != nil {
		return err
	}
	call := types.Call{
		ModuleIndex:   runtime.OracleModuleIndex,
		FunctionIndex: oracle.CallSubmitPrices,
		Args:          args,
	}

	genesisHash, err := f.client.GenesisHash()
	if err != nil {
		return err
	}
	nonce, err := f.client.AccountNonce(f.keyring.Account())
	if err != nil {
		return err
	}

	extrinsic, err := f.keyring.Sign(call, nonce, genesisHash)
	if err != nil {
		return err
	}
	txHash, err := f.client.SubmitExtrinsic(extrinsic)
	if err != nil {
		return err
	}

	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.PRICEFEED_SUBMITTED,
		len(entries),
		txHash,
	).ConsoleLog()
	return nil
}
