package pricefeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
)

// NodeClient is the JSON-RPC client the price feed uses to talk to a chain
// node.
type NodeClient struct {
	endpoint string
	client   *http.Client
}

func NewNodeClient(endpoint string) *NodeClient {
	return &NodeClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (nc *NodeClient) GenesisHash() (common.Hash, error) {
	var encoded string
	if err := nc.call("chain_genesisHash", nil, &encoded); err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(encoded)
}

func (nc *NodeClient) AccountNonce(account types.AccountID) (uint32, error) {
	var nonce uint32
	err := nc.call("state_nonce", []interface{}{account.String()}, &nonce)
	return nonce, err
}

func (nc *NodeClient) SupportedAssets() ([]oracle.Asset, error) {
	var response []struct {
		Blockchain string `json:"blockchain"`
		Symbol     string `json:"symbol"`
	}
	if err := nc.call("oracle_supportedAssets", nil, &response); err != nil {
		return nil, err
	}

	assets := make([]oracle.Asset, 0, len(response))
	for _, asset := range response {
		assets = append(assets, oracle.Asset{Blockchain: asset.Blockchain, Symbol: asset.Symbol})
	}
	return assets, nil
}

func (nc *NodeClient) SubmitExtrinsic(extrinsic *types.Extrinsic) (string, error) {
	encoded, err := extrinsic.Encode()
	if err != nil {
		return "", err
	}

	var txHash string
	err = nc.call("author_submitExtrinsic", []interface{}{fmt.Sprintf("0x%x", encoded)}, &txHash)
	return txHash, err
}

func (nc *NodeClient) call(method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	requestBody, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}

	response, err := nc.client.Post(nc.endpoint, "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return err
	}
	defer response.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return err
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return json.Unmarshal(envelope.Result, result)
}
