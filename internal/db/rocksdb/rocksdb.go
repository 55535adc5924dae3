package rocksdb

import (
	"go-dia-chain/internal/config"
	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/linxGnu/grocksdb"
)

const (
	/// Chain metadata: last finalized lookup key, genesis hash
	COL_META = iota + 1
	/// Maps block numbers to lookup keys
	COL_KEY_LOOKUP
	/// Part of Block
	COL_HEADER
	COL_BODY
	COL_EVENTS
	/// Latest committed runtime state
	COL_STATE
)

var columnFamilyNames = []string{
	"default",
	"meta",
	"key_lookup",
	"header",
	"body",
	"events",
	"state",
}

var (
	metaFinalKey   = []byte("final")
	metaGenesisKey = []byte("gen")
)

type ChainClient struct {
	db            *grocksdb.DB
	columnHandles []*grocksdb.ColumnFamilyHandle
	opts          *grocksdb.Options
	ro            *grocksdb.ReadOptions
	wo            *grocksdb.WriteOptions
}

// OpenChainDb opens (creating if needed) the chain database indicated by the
// config path.
func OpenChainDb(config config.RocksdbConfig) *ChainClient {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.ROCKSDB_CONNECTING,
		config.RocksdbPath,
	).ConsoleLog()
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetCreateIfMissingColumnFamilies(true)
	opts.SetMaxOpenFiles(-1)
	ro := grocksdb.NewDefaultReadOptions()
	wo := grocksdb.NewDefaultWriteOptions()

	cfOpts := []*grocksdb.Options{}
	for range columnFamilyNames {
		cfOpts = append(cfOpts, opts)
	}

	db, handles, err := grocksdb.OpenDbColumnFamilies(
		opts,
		config.RocksdbPath,
		columnFamilyNames,
		cfOpts,
	)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(OpenChainDb),
			err,
			messages.ROCKSDB_FAILED_TO_CONNECT,
			config.RocksdbPath,
		).ConsoleLog()
	}

	messages.NewNodeMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		messages.ROCKSDB_CONNECTED,
	).ConsoleLog()

	return &ChainClient{
		db,
		handles,
		opts,
		ro,
		wo,
	}
}

func (cc *ChainClient) Close() {
	cc.db.Close()
}

func blockNumberToKey(blockNumber uint32) []byte {
	return []byte{
		byte(blockNumber >> 24),
		byte((blockNumber >> 16) & 0xff),
		byte((blockNumber >> 8) & 0xff),
		byte(blockNumber & 0xff),
	}
}

// PutBlock atomically persists a sealed block: lookup key, header, body,
// events, the finalized pointer and the post state entries.
func (cc *ChainClient) PutBlock(block *types.Block, events []types.Event, stateEntries map[string][]byte) {
	blockHash, err := block.Header.Hash()
	if err != nil {
		cc.writeFailed(block.Header.Number, err)
	}
	lookupKey := append(blockNumberToKey(block.Header.Number), blockHash[:]...)

	encHeader, err := scale.Marshal(block.Header)
	if err != nil {
		cc.writeFailed(block.Header.Number, err)
	}
	encBody, err := scale.Marshal(block.Extrinsics)
	if err != nil {
		cc.writeFailed(block.Header.Number, err)
	}
	encEvents, err := types.EncodeEvents(events)
	if err != nil {
		cc.writeFailed(block.Header.Number, err)
	}

	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()

	batch.PutCF(cc.columnHandles[COL_KEY_LOOKUP], blockNumberToKey(block.Header.Number), lookupKey)
	batch.PutCF(cc.columnHandles[COL_HEADER], lookupKey, encHeader)
	batch.PutCF(cc.columnHandles[COL_BODY], lookupKey, encBody)
	batch.PutCF(cc.columnHandles[COL_EVENTS], lookupKey, encEvents)
	batch.PutCF(cc.columnHandles[COL_META], metaFinalKey, lookupKey)

	for key := range cc.stateKeys() {
		if _, stillPresent := stateEntries[key]; !stillPresent {
			batch.DeleteCF(cc.columnHandles[COL_STATE], []byte(key))
		}
	}
	for key, value := range stateEntries {
		batch.PutCF(cc.columnHandles[COL_STATE], []byte(key), value)
	}

	if err := cc.db.Write(cc.wo, batch); err != nil {
		cc.writeFailed(block.Header.Number, err)
	}
}

// PutGenesisHash records the chain identity once at first start.
func (cc *ChainClient) PutGenesisHash(hash common.Hash) {
	if err := cc.db.PutCF(cc.wo, cc.columnHandles[COL_META], metaGenesisKey, hash[:]); err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.PutGenesisHash),
			err,
			messages.ROCKSDB_FAILED_WRITE,
			0,
		).ConsoleLog()
	}
}

// GetGenesisHash returns the stored chain identity, or false when the
// database is fresh.
func (cc *ChainClient) GetGenesisHash() (common.Hash, bool) {
	raw, err := cc.db.GetCF(cc.ro, cc.columnHandles[COL_META], metaGenesisKey)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetGenesisHash),
			err,
			messages.ROCKSDB_FAILED_GENESIS,
		).ConsoleLog()
	}
	defer raw.Free()
	if raw.Data() == nil {
		return common.Hash{}, false
	}
	return common.BytesToHash(raw.Data()), true
}

// GetLastFinalized returns the number of the last persisted block, or false
// when no block has been sealed yet.
func (cc *ChainClient) GetLastFinalized() (uint32, bool) {
	raw, err := cc.db.GetCF(cc.ro, cc.columnHandles[COL_META], metaFinalKey)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetLastFinalized),
			err,
			messages.ROCKSDB_FAILED_TO_GET_FINALIZED_BLOCK,
		).ConsoleLog()
	}
	defer raw.Free()
	if raw.Data() == nil || len(raw.Data()) < 4 {
		return 0, false
	}
	data := raw.Data()
	number := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	return number, true
}

// GetLookupKeyForBlockNumber returns the lookup key for a given block number.
func (cc *ChainClient) GetLookupKeyForBlockNumber(blockNumber uint32) []byte {
	response, err := cc.db.GetCF(cc.ro, cc.columnHandles[COL_KEY_LOOKUP], blockNumberToKey(blockNumber))
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetLookupKeyForBlockNumber),
			err,
			messages.ROCKSDB_FAILED_LOOKUP_KEY,
			blockNumber,
		).ConsoleLog()
	}
	defer response.Free()
	returnedData := []byte{}
	returnedData = append(returnedData, response.Data()...)
	return returnedData
}

// GetHeader retrieves a block header by number.
func (cc *ChainClient) GetHeader(blockNumber uint32) (types.Header, bool) {
	lookupKey := cc.GetLookupKeyForBlockNumber(blockNumber)
	if len(lookupKey) == 0 {
		return types.Header{}, false
	}
	raw, err := cc.db.GetCF(cc.ro, cc.columnHandles[COL_HEADER], lookupKey)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetHeader),
			err,
			messages.ROCKSDB_FAILED_HEADER,
		).ConsoleLog()
	}
	defer raw.Free()
	if raw.Data() == nil {
		return types.Header{}, false
	}

	var header types.Header
	if err := scale.Unmarshal(raw.Data(), &header); err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetHeader),
			err,
			messages.ROCKSDB_FAILED_HEADER,
		).ConsoleLog()
	}
	return header, true
}

// GetBody retrieves the extrinsics of a block by number.
func (cc *ChainClient) GetBody(blockNumber uint32) ([]types.Extrinsic, bool) {
	lookupKey := cc.GetLookupKeyForBlockNumber(blockNumber)
	if len(lookupKey) == 0 {
		return nil, false
	}
	raw, err := cc.db.GetCF(cc.ro, cc.columnHandles[COL_BODY], lookupKey)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetBody),
			err,
			messages.ROCKSDB_FAILED_BODY,
		).ConsoleLog()
	}
	defer raw.Free()
	if raw.Data() == nil {
		return nil, false
	}

	var body []types.Extrinsic
	if err := scale.Unmarshal(raw.Data(), &body); err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetBody),
			err,
			messages.ROCKSDB_FAILED_BODY,
		).ConsoleLog()
	}
	return body, true
}

// GetEvents retrieves the event log of a block by number.
func (cc *ChainClient) GetEvents(blockNumber uint32) ([]types.Event, bool) {
	lookupKey := cc.GetLookupKeyForBlockNumber(blockNumber)
	if len(lookupKey) == 0 {
		return nil, false
	}
	raw, err := cc.db.GetCF(cc.ro, cc.columnHandles[COL_EVENTS], lookupKey)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetEvents),
			err,
			messages.ROCKSDB_FAILED_EVENTS,
		).ConsoleLog()
	}
	defer raw.Free()
	if raw.Data() == nil {
		return nil, false
	}

	events, err := types.DecodeEvents(raw.Data())
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(cc.GetEvents),
			err,
			messages.ROCKSDB_FAILED_EVENTS,
		).ConsoleLog()
	}
	return events, true
}

// LoadStateEntries returns the full committed state key/value set, used to
// rebuild the state trie on restart.
func (cc *ChainClient) LoadStateEntries() map[string][]byte {
	return cc.stateKeys()
}

func (cc *ChainClient) stateKeys() map[string][]byte {
	entries := make(map[string][]byte)
	it := cc.db.NewIteratorCF(cc.ro, cc.columnHandles[COL_STATE])
	defer it.Close()

	for it.SeekToFirst(); it.Valid(); it.Next() {
		key := it.Key()
		value := it.Value()
		buffered := make([]byte, len(value.Data()))
		copy(buffered, value.Data())
		entries[string(key.Data())] = buffered
		key.Free()
		value.Free()
	}
	return entries
}

func (cc *ChainClient) writeFailed(blockNumber uint32, err error) {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_ERROR,
		messages.GetComponent(cc.PutBlock),
		err,
		messages.ROCKSDB_FAILED_WRITE,
		blockNumber,
	).ConsoleLog()
}
