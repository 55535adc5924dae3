package rpc

import (
	"encoding/json"
	"net/http"

	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/runtime/api"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/gorilla/mux"
	"github.com/itering/substrate-api-rpc/util"
)

type (
	// ExtrinsicQueue is the node side of author_submitExtrinsic: the server
	// hands decoded extrinsics over and the sealer picks them up.
	ExtrinsicQueue interface {
		SubmitExtrinsic(extrinsic types.Extrinsic) error
	}

	// HeaderSource resolves sealed headers for chain_header.
	HeaderSource interface {
		GetHeader(blockNumber uint32) (types.Header, bool)
		GetLastFinalized() (uint32, bool)
	}

	Server struct {
		address     string
		nodeVersion string
		genesisHash common.Hash
		runtimeApi  *api.API
		headers     HeaderSource
		queue       ExtrinsicQueue
	}
)

func NewServer(
	address string,
	nodeVersion string,
	genesisHash common.Hash,
	runtimeApi *api.API,
	headers HeaderSource,
	queue ExtrinsicQueue,
) *Server {
	return &Server{
		address:     address,
		nodeVersion: nodeVersion,
		genesisHash: genesisHash,
		runtimeApi:  runtimeApi,
		headers:     headers,
		queue:       queue,
	}
}

// Run blocks serving JSON-RPC requests until the listener fails.
func (s *Server) Run() {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleRpc).Methods(http.MethodPost)

	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.RPC_SERVER_STARTING,
		s.address,
	).ConsoleLog()

	err := http.ListenAndServe(s.address, router)
	messages.NewNodeMessage(
		messages.LOG_LEVEL_ERROR,
		messages.GetComponent(s.Run),
		err,
		messages.RPC_SERVER_FAILED,
	).ConsoleLog()
}

func (s *Server) handleRpc(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeResponse(w, rpcResponse{JsonRpc: "2.0", Error: &rpcError{errCodeParse, "parse error"}})
		return
	}

	result, rpcErr := s.dispatch(&request)
	response := rpcResponse{JsonRpc: "2.0", Id: request.Id}
	if rpcErr != nil {
		response.Error = rpcErr
	} else {
		response.Result = result
	}
	writeResponse(w, response)
}

func (s *Server) dispatch(request *rpcRequest) (interface{}, *rpcError) {
	switch request.Method {
	case "author_submitExtrinsic":
		return s.submitExtrinsic(request.Params)
	case "chain_header":
		return s.chainHeader(request.Params)
	case "chain_genesisHash":
		return s.genesisHash.String(), nil
	case "state_nonce":
		return s.stateNonce(request.Params)
	case "state_freeBalance":
		return s.freeBalance(request.Params)
	case "oracle_price":
		return s.oraclePrice(request.Params)
	case "oracle_supportedAssets":
		return s.supportedAssets(request.Params)
	case "system_version":
		version := s.runtimeApi.Version()
		return versionResponse{
			SpecName:    version.SpecName,
			ImplName:    version.ImplName,
			SpecVersion: version.SpecVersion,
			TxVersion:   version.TxVersion,
			NodeVersion: s.nodeVersion,
		}, nil
	default:
		return nil, &rpcError{errCodeUnknownMethod, "method not found"}
	}
}

func (s *Server) submitExtrinsic(params []json.RawMessage) (interface{}, *rpcError) {
	var encoded string
	if err := decodeParam(params, 0, &encoded); err != nil {
		return nil, err
	}

	extrinsic, err := types.DecodeExtrinsic(util.HexToBytes(encoded))
	if err != nil {
		return nil, &rpcError{errCodeInvalidParams, err.Error()}
	}
	if err := s.queue.SubmitExtrinsic(*extrinsic); err != nil {
		return nil, &rpcError{errCodeInternal, err.Error()}
	}

	hash, err := extrinsic.Hash()
	if err != nil {
		return nil, &rpcError{errCodeInternal, err.Error()}
	}
	return hash.String(), nil
}

func (s *Server) chainHeader(params []json.RawMessage) (interface{}, *rpcError) {
	blockNumber, rpcErr := s.blockNumberParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if blockNumber == nil {
		latest, ok := s.headers.GetLastFinalized()
		if !ok {
			return nil, &rpcError{errCodeInternal, "no block sealed yet"}
		}
		blockNumber = &latest
	}

	header, ok := s.headers.GetHeader(*blockNumber)
	if !ok {
		return nil, &rpcError{errCodeInvalidParams, "unknown block"}
	}
	return headerResponse{
		ParentHash:     header.ParentHash.String(),
		Number:         header.Number,
		StateRoot:      header.StateRoot.String(),
		ExtrinsicsRoot: header.ExtrinsicsRoot.String(),
	}, nil
}

func (s *Server) stateNonce(params []json.RawMessage) (interface{}, *rpcError) {
	account, rpcErr := accountParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blockNumber, rpcErr := s.blockNumberParam(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	nonce, err := s.runtimeApi.AccountNonce(blockNumber, account)
	if err != nil {
		return nil, &rpcError{errCodeInternal, err.Error()}
	}
	return nonce, nil
}

func (s *Server) freeBalance(params []json.RawMessage) (interface{}, *rpcError) {
	account, rpcErr := accountParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blockNumber, rpcErr := s.blockNumberParam(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	balance, err := s.runtimeApi.FreeBalance(blockNumber, account)
	if err != nil {
		return nil, &rpcError{errCodeInternal, err.Error()}
	}
	return balance, nil
}

func (s *Server) oraclePrice(params []json.RawMessage) (interface{}, *rpcError) {
	var blockchain, symbol string
	if err := decodeParam(params, 0, &blockchain); err != nil {
		return nil, err
	}
	if err := decodeParam(params, 1, &symbol); err != nil {
		return nil, err
	}
	blockNumber, rpcErr := s.blockNumberParam(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}

	info, found, err := s.runtimeApi.PriceForAsset(blockNumber, oracle.Asset{Blockchain: blockchain, Symbol: symbol})
	if err != nil {
		return nil, &rpcError{errCodeInternal, err.Error()}
	}
	if !found {
		return nil, &rpcError{errCodeInvalidParams, "no price recorded for asset"}
	}
	return priceResponse{
		Blockchain:          info.Blockchain,
		Symbol:              info.Symbol,
		Name:                info.Name,
		Price:               info.Price.String(),
		Supply:              info.Supply.String(),
		LastUpdateTimestamp: info.LastUpdateTimestamp,
		UpdatedAt:           info.UpdatedAt,
	}, nil
}

func (s *Server) supportedAssets(params []json.RawMessage) (interface{}, *rpcError) {
	blockNumber, rpcErr := s.blockNumberParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	assets, err := s.runtimeApi.SupportedAssets(blockNumber)
	if err != nil {
		return nil, &rpcError{errCodeInternal, err.Error()}
	}
	response := make([]assetResponse, 0, len(assets))
	for _, asset := range assets {
		response = append(response, assetResponse{Blockchain: asset.Blockchain, Symbol: asset.Symbol})
	}
	return response, nil
}

// blockNumberParam reads an optional block number parameter. A missing or
// null parameter addresses the latest state.
func (s *Server) blockNumberParam(params []json.RawMessage, index int) (*uint32, *rpcError) {
	if index >= len(params) || string(params[index]) == "null" {
		return nil, nil
	}
	var blockNumber uint32
	if err := json.Unmarshal(params[index], &blockNumber); err != nil {
		return nil, &rpcError{errCodeInvalidParams, "invalid block number"}
	}
	return &blockNumber, nil
}

func accountParam(params []json.RawMessage, index int) (types.AccountID, *rpcError) {
	var encoded string
	if err := decodeParam(params, index, &encoded); err != nil {
		return types.AccountID{}, err
	}
	account, err := types.AccountIDFromBytes(util.HexToBytes(encoded))
	if err != nil {
		return types.AccountID{}, &rpcError{errCodeInvalidParams, err.Error()}
	}
	return account, nil
}

func decodeParam(params []json.RawMessage, index int, target interface{}) *rpcError {
	if index >= len(params) {
		return &rpcError{errCodeInvalidParams, "missing parameter"}
	}
	if err := json.Unmarshal(params[index], target); err != nil {
		return &rpcError{errCodeInvalidParams, "invalid parameter"}
	}
	return nil
}

func writeResponse(w http.ResponseWriter, response rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
