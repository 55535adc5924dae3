package rpc

import "encoding/json"

// rpcRequest is the inbound JSON-RPC 2.0 envelope.
type rpcRequest struct {
	JsonRpc string            `json:"jsonrpc"`
	Id      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const (
	errCodeParse          = -32700
	errCodeInvalidRequest = -32600
	errCodeUnknownMethod  = -32601
	errCodeInvalidParams  = -32602
	errCodeInternal       = -32603
)

type headerResponse struct {
	ParentHash     string `json:"parentHash"`
	Number         uint32 `json:"number"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
}

type priceResponse struct {
	Blockchain          string `json:"blockchain"`
	Symbol              string `json:"symbol"`
	Name                string `json:"name"`
	Price               string `json:"price"`
	Supply              string `json:"supply"`
	LastUpdateTimestamp uint64 `json:"lastUpdateTimestamp"`
	UpdatedAt           uint32 `json:"updatedAt"`
}

type assetResponse struct {
	Blockchain string `json:"blockchain"`
	Symbol     string `json:"symbol"`
}

type versionResponse struct {
	SpecName    string `json:"specName"`
	ImplName    string `json:"implName"`
	SpecVersion uint32 `json:"specVersion"`
	TxVersion   uint32 `json:"txVersion"`
	NodeVersion string `json:"nodeVersion"`
}
