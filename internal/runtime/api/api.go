// Package api is the read only runtime API surface: named, versioned query
// functions evaluated against any retained historical state snapshot. None
// of these calls can reach a state.Writer, so mutation is impossible by
// construction.
package api

import (
	"go-dia-chain/internal/modules/balances"
	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/modules/session"
	"go-dia-chain/internal/modules/system"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"
)

// RuntimeVersion identifies the query surface to off chain callers.
type RuntimeVersion struct {
	SpecName    string
	ImplName    string
	SpecVersion uint32
	TxVersion   uint32
	APIs        []string
}

func DefaultVersion() RuntimeVersion {
	return RuntimeVersion{
		SpecName:    "dia-chain",
		ImplName:    "go-dia-chain",
		SpecVersion: 1,
		TxVersion:   1,
		APIs: []string{
			"OracleApi_price_for_asset",
			"OracleApi_supported_assets",
			"AccountNonceApi_account_nonce",
			"BalancesApi_free_balance",
			"SessionApi_authorities",
		},
	}
}

type API struct {
	snapshots *state.Snapshots
	version   RuntimeVersion
}

func New(snapshots *state.Snapshots, version RuntimeVersion) *API {
	return &API{snapshots: snapshots, version: version}
}

func (a *API) Version() RuntimeVersion {
	return a.version
}

// at resolves a historical state handle; nil means the latest block.
func (a *API) at(blockNumber *uint32) (state.Reader, error) {
	if blockNumber == nil {
		reader, _, err := a.snapshots.Latest()
		return reader, err
	}
	return a.snapshots.At(*blockNumber)
}

// PriceForAsset returns the finalized price record for an asset, with an
// explicit found flag. An asset that never reached quorum reports found
// false, never a zero record.
func (a *API) PriceForAsset(blockNumber *uint32, asset oracle.Asset) (oracle.CoinInfo, bool, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return oracle.CoinInfo{}, false, err
	}
	info, found := oracle.Price(reader, asset)
	return info, found, nil
}

// SupportedAssets returns the assets accepting submissions.
func (a *API) SupportedAssets(blockNumber *uint32) ([]oracle.Asset, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return nil, err
	}
	return oracle.SupportedAssets(reader), nil
}

// AuthorizedSubmitters returns the submitter registry.
func (a *API) AuthorizedSubmitters(blockNumber *uint32) ([]types.AccountID, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return nil, err
	}
	return oracle.AuthorizedAccounts(reader), nil
}

// AccountNonce returns the next expected nonce of an account.
func (a *API) AccountNonce(blockNumber *uint32, who types.AccountID) (uint32, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return 0, err
	}
	return system.Nonce(reader, who), nil
}

// FreeBalance returns an account's spendable balance.
func (a *API) FreeBalance(blockNumber *uint32, who types.AccountID) (uint64, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return 0, err
	}
	return balances.Free(reader, who), nil
}

// Authorities returns the validator set consensus reads at the session
// boundary interface.
func (a *API) Authorities(blockNumber *uint32) ([]types.AccountID, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return nil, err
	}
	return session.Validators(reader), nil
}

// BlockNumber returns the number recorded in the queried state.
func (a *API) BlockNumber(blockNumber *uint32) (uint32, error) {
	reader, err := a.at(blockNumber)
	if err != nil {
		return 0, err
	}
	return system.BlockNumber(reader), nil
}
