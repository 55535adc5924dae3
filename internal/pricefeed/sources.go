package pricefeed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-dia-chain/internal/modules/oracle"

	"github.com/shopspring/decimal"
)

const (
	binanceEndpoint   = "https://api.binance.com/api/v3/ticker/price"
	coingeckoEndpoint = "https://api.coingecko.com/api/v3/coins/markets"

	sourceRequestTimeout = 10 * time.Second
)

// coingeckoIds maps chain symbols to coingecko asset ids. Assets without a
// mapping are skipped by the coingecko source.
var coingeckoIds = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"DOT":  "polkadot",
	"USDT": "tether",
	"USDC": "usd-coin",
	"DIA":  "dia-data",
}

type (
	// BinanceSource reads spot prices from the binance public ticker.
	// Binance has no supply data so supply is reported as zero.
	BinanceSource struct {
		client *http.Client
	}

	// CoinGeckoSource reads prices and circulating supply from the
	// coingecko markets endpoint.
	CoinGeckoSource struct {
		client *http.Client
	}
)

func NewBinanceSource() *BinanceSource {
	return &BinanceSource{client: &http.Client{Timeout: sourceRequestTimeout}}
}

func (b *BinanceSource) Name() string { return "binance" }

func (b *BinanceSource) Quotations(assets []oracle.Asset) ([]Quotation, error) {
	quotations := []Quotation{}
	for _, asset := range assets {
		requestUrl := fmt.Sprintf("%s?symbol=%sUSDT", binanceEndpoint, strings.ToUpper(asset.Symbol))
		response, err := b.client.Get(requestUrl)
		if err != nil {
			return nil, err
		}
		if response.StatusCode != http.StatusOK {
			// unknown symbols are not an error for the whole batch
			response.Body.Close()
			continue
		}

		var ticker struct {
			Symbol string          `json:"symbol"`
			Price  decimal.Decimal `json:"price"`
		}
		err = json.NewDecoder(response.Body).Decode(&ticker)
		response.Body.Close()
		if err != nil {
			return nil, err
		}

		quotations = append(quotations, Quotation{
			Asset:     asset,
			Name:      asset.Symbol,
			Price:     ticker.Price,
			Supply:    decimal.Zero,
			Timestamp: uint64(time.Now().Unix()),
		})
	}
	return quotations, nil
}

func NewCoinGeckoSource() *CoinGeckoSource {
	return &CoinGeckoSource{client: &http.Client{Timeout: sourceRequestTimeout}}
}

func (c *CoinGeckoSource) Name() string { return "coingecko" }

func (c *CoinGeckoSource) Quotations(assets []oracle.Asset) ([]Quotation, error) {
	ids := []string{}
	assetsById := map[string]oracle.Asset{}
	for _, asset := range assets {
		id, ok := coingeckoIds[strings.ToUpper(asset.Symbol)]
		if !ok {
			continue
		}
		ids = append(ids, id)
		assetsById[id] = asset
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("ids", strings.Join(ids, ","))
	response, err := c.client.Get(fmt.Sprintf("%s?%s", coingeckoEndpoint, query.Encode()))
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned status %d", response.StatusCode)
	}

	var markets []struct {
		Id                string          `json:"id"`
		Name              string          `json:"name"`
		CurrentPrice      decimal.Decimal `json:"current_price"`
		CirculatingSupply decimal.Decimal `json:"circulating_supply"`
	}
	if err := json.NewDecoder(response.Body).Decode(&markets); err != nil {
		return nil, err
	}

	quotations := []Quotation{}
	for _, market := range markets {
		asset, ok := assetsById[market.Id]
		if !ok {
			continue
		}
		quotations = append(quotations, Quotation{
			Asset:     asset,
			Name:      market.Name,
			Price:     market.CurrentPrice,
			Supply:    market.CirculatingSupply,
			Timestamp: uint64(time.Now().Unix()),
		})
	}
	return quotations, nil
}
