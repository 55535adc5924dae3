package node

import (
	"sync"
	"time"

	"go-dia-chain/internal/archive"
	"go-dia-chain/internal/config"
	"go-dia-chain/internal/db/postgres"
	"go-dia-chain/internal/db/rocksdb"
	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/modules/timestamp"
	"go-dia-chain/internal/rpc"
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/runtime/api"
	"go-dia-chain/internal/state"
	"go-dia-chain/internal/types"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

const (
	ORCHESTRATOR_INITIALIZING     = "Initializing dia chain node"
	ORCHESTRATOR_COMPOSITION      = "Runtime composition:\n%s"
	ORCHESTRATOR_GENESIS_FRESH    = "Fresh database, sealing genesis block %s"
	ORCHESTRATOR_GENESIS_RESTORE  = "Restored chain state at block %d"
	ORCHESTRATOR_GENESIS_MISMATCH = "Database genesis hash %s does not match the genesis file"
	ORCHESTRATOR_HEAD_MISSING     = "Chain database has no header for finalized block %d"
	ORCHESTRATOR_CLOSE            = "Closing node"

	snapshotRetention = 256
)

type (
	// Orchestrator wires the chain node together: runtime, executive, chain
	// database, snapshots, runtime api, rpc server and the optional postgres
	// archive.
	Orchestrator struct {
		configuration config.Config
		chainRuntime  *runtime.Runtime
		executive     *runtime.Executive
		chainDb       *rocksdb.ChainClient
		pgClient      *postgres.PostgresClient
		archiveClient *archive.ArchiveClient
		snapshots     *state.Snapshots
		runtimeApi    *api.API
		rpcServer     *rpc.Server

		head       *state.TrieState
		headNumber uint32
		headHash   common.Hash

		poolMutex sync.Mutex
		pool      []types.Extrinsic

		closing chan struct{}
	}
)

// NewOrchestrator creates and initialises a new orchestrator
func NewOrchestrator(configuration config.Config) *Orchestrator {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		ORCHESTRATOR_INITIALIZING,
	).ConsoleLog()

	// Runtime composition
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.RUNTIME_COMPOSING,
	).ConsoleLog()
	chainRuntime, err := runtime.NewDiaRuntime()
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewOrchestrator),
			err,
			messages.RUNTIME_FAILED_TO_COMPOSE,
		).ConsoleLog()
	}
	messages.NewNodeMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		messages.RUNTIME_COMPOSED,
		len(chainRuntime.Modules()),
	).ConsoleLog()
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		ORCHESTRATOR_COMPOSITION,
		chainRuntime.Render(),
	).ConsoleLog()

	// Genesis document
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.GENESIS_STARTED_LOADING,
		configuration.ChainConfig.GenesisFile,
	).ConsoleLog()
	genesis, err := runtime.LoadGenesis(configuration.ChainConfig.GenesisFile)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewOrchestrator),
			err,
			messages.GENESIS_FAILED_TO_LOAD,
		).ConsoleLog()
	}

	genesisState := state.NewTrieState()
	if err := chainRuntime.BuildGenesis(genesis, genesisState); err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewOrchestrator),
			err,
			messages.GENESIS_FAILED_TO_BUILD,
			genesis.ChainName,
		).ConsoleLog()
	}
	genesisHeader, err := runtime.GenesisHeader(genesisState)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewOrchestrator),
			err,
			messages.GENESIS_FAILED_TO_BUILD,
			genesis.ChainName,
		).ConsoleLog()
	}
	genesisHash, err := genesisHeader.Hash()
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewOrchestrator),
			err,
			messages.GENESIS_FAILED_TO_BUILD,
			genesis.ChainName,
		).ConsoleLog()
	}
	chainRuntime.SetGenesisHash(genesisHash)
	messages.NewNodeMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		messages.GENESIS_FINISHED_LOADING,
		genesisState.Root().String(),
	).ConsoleLog()

	// Rocksdb connect, then restore the chain head or seal block zero
	chainDb := rocksdb.OpenChainDb(configuration.RocksdbConfig)

	orchestrator := &Orchestrator{
		configuration: configuration,
		chainRuntime:  chainRuntime,
		executive:     runtime.NewExecutive(chainRuntime, runtime.DefaultConfig()),
		chainDb:       chainDb,
		snapshots:     state.NewSnapshots(snapshotRetention),
		closing:       make(chan struct{}),
	}

	if storedGenesis, ok := chainDb.GetGenesisHash(); ok {
		if storedGenesis != genesisHash {
			messages.NewNodeMessage(
				messages.LOG_LEVEL_ERROR,
				messages.GetComponent(NewOrchestrator),
				nil,
				ORCHESTRATOR_GENESIS_MISMATCH,
				storedGenesis.String(),
			).ConsoleLog()
		}
		orchestrator.restoreHead()
	} else {
		orchestrator.sealGenesis(genesisState, genesisHeader, genesisHash)
	}
	orchestrator.snapshots.Keep(orchestrator.headNumber, orchestrator.head)

	// Runtime API and RPC server
	orchestrator.runtimeApi = api.New(orchestrator.snapshots, api.DefaultVersion())
	orchestrator.rpcServer = rpc.NewServer(
		configuration.ChainConfig.RpcAddress,
		configuration.NodeVersion,
		genesisHash,
		orchestrator.runtimeApi,
		chainDb,
		orchestrator,
	)

	// Optional postgres archive
	if configuration.PostgresConfig.Enabled {
		orchestrator.pgClient = postgres.Connect(configuration.PostgresConfig)
		orchestrator.archiveClient = archive.NewArchiveClient(
			orchestrator.pgClient,
			chainRuntime,
			configuration.ChainConfig.ArchiveWorkers,
		)
		orchestrator.archiveClient.Run()
	}

	return orchestrator
}

// restoreHead rebuilds the in memory chain head from the persisted state.
func (orchestrator *Orchestrator) restoreHead() {
	finalized, ok := orchestrator.chainDb.GetLastFinalized()
	if !ok {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(orchestrator.restoreHead),
			nil,
			messages.ROCKSDB_FAILED_TO_GET_FINALIZED_BLOCK,
		).ConsoleLog()
	}
	header, ok := orchestrator.chainDb.GetHeader(finalized)
	if !ok {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(orchestrator.restoreHead),
			nil,
			ORCHESTRATOR_HEAD_MISSING,
			finalized,
		).ConsoleLog()
	}
	headHash, err := header.Hash()
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(orchestrator.restoreHead),
			err,
			ORCHESTRATOR_HEAD_MISSING,
			finalized,
		).ConsoleLog()
	}

	orchestrator.head = state.NewTrieStateFromEntries(orchestrator.chainDb.LoadStateEntries())
	orchestrator.headNumber = finalized
	orchestrator.headHash = headHash

	messages.NewNodeMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		ORCHESTRATOR_GENESIS_RESTORE,
		finalized,
	).ConsoleLog()
}

// sealGenesis persists block zero on a fresh database.
func (orchestrator *Orchestrator) sealGenesis(
	genesisState *state.TrieState,
	genesisHeader types.Header,
	genesisHash common.Hash,
) {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		ORCHESTRATOR_GENESIS_FRESH,
		genesisHash.String(),
	).ConsoleLog()

	orchestrator.chainDb.PutGenesisHash(genesisHash)
	orchestrator.chainDb.PutBlock(
		&types.Block{Header: genesisHeader},
		nil,
		genesisState.Entries(),
	)

	orchestrator.head = genesisState
	orchestrator.headNumber = 0
	orchestrator.headHash = genesisHash
}

// SubmitExtrinsic queues an inbound signed extrinsic for the next sealed
// block. Inherents are rejected, only the block author produces those.
func (orchestrator *Orchestrator) SubmitExtrinsic(extrinsic types.Extrinsic) error {
	if _, err := types.VerifyExtrinsic(&extrinsic, orchestrator.chainRuntime.GenesisHash()); err != nil {
		return err
	}

	orchestrator.poolMutex.Lock()
	defer orchestrator.poolMutex.Unlock()
	orchestrator.pool = append(orchestrator.pool, extrinsic)
	return nil
}

// Run starts the rpc server and blocks driving the dev sealer loop.
func (orchestrator *Orchestrator) Run() {
	go orchestrator.rpcServer.Run()

	blockTime := time.Duration(orchestrator.configuration.ChainConfig.BlockTimeMs) * time.Millisecond
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.SEALER_STARTING,
		blockTime.String(),
	).ConsoleLog()

	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()
	for {
		select {
		case <-orchestrator.closing:
			return
		case <-ticker.C:
			orchestrator.sealBlock()
		}
	}
}

func (orchestrator *Orchestrator) sealBlock() {
	blockNumber := orchestrator.headNumber + 1
	candidates := append(
		[]types.Extrinsic{timestampInherent()},
		orchestrator.drainPool()...,
	)

	result, block, deferred, dropped, err := orchestrator.executive.BuildBlock(
		orchestrator.head,
		orchestrator.headHash,
		blockNumber,
		candidates,
	)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(orchestrator.sealBlock),
			err,
			messages.SEALER_FAILED_TO_SEAL,
			blockNumber,
		).ConsoleLog()
	}

	for _, drop := range dropped {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_WARNING,
			"",
			drop.Reason,
			messages.SEALER_INVALID_INBOUND,
		).ConsoleLog()
	}
	orchestrator.requeue(deferred)

	blockHash, err := block.Header.Hash()
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(orchestrator.sealBlock),
			err,
			messages.ROCKSDB_FAILED_WRITE,
			blockNumber,
		).ConsoleLog()
	}

	orchestrator.chainDb.PutBlock(block, result.Events, result.PostState.Entries())
	if orchestrator.archiveClient != nil {
		orchestrator.archiveClient.Archive(&archive.ArchiveJob{
			Block:    block,
			Outcomes: result.Outcomes,
			Events:   result.Events,
		})
	}

	orchestrator.head = result.PostState
	orchestrator.headNumber = blockNumber
	orchestrator.headHash = blockHash
	orchestrator.snapshots.Keep(blockNumber, result.PostState)

	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.SEALER_SEALED_BLOCK,
		blockNumber,
		len(block.Extrinsics),
		result.Header.StateRoot.String(),
	).ConsoleLog()
}

func (orchestrator *Orchestrator) drainPool() []types.Extrinsic {
	orchestrator.poolMutex.Lock()
	defer orchestrator.poolMutex.Unlock()
	drained := orchestrator.pool
	orchestrator.pool = nil
	return drained
}

// requeue puts deferred extrinsics at the front of the pool so submission
// order survives a full block.
func (orchestrator *Orchestrator) requeue(deferred []types.Extrinsic) {
	if len(deferred) == 0 {
		return
	}
	orchestrator.poolMutex.Lock()
	defer orchestrator.poolMutex.Unlock()
	orchestrator.pool = append(deferred, orchestrator.pool...)
}

func (orchestrator *Orchestrator) Close() {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		ORCHESTRATOR_CLOSE,
	).ConsoleLog()

	close(orchestrator.closing)
	if orchestrator.archiveClient != nil {
		orchestrator.archiveClient.Close()
	}
	if orchestrator.pgClient != nil {
		orchestrator.pgClient.Close()
	}
	orchestrator.chainDb.Close()
}

// timestampInherent builds the block author's timestamp inherent for the
// current wall clock, in milliseconds.
func timestampInherent() types.Extrinsic {
	now := uint64(time.Now().UnixMilli())
	args, err := scale.Marshal(now)
	if err != nil {
		panic(err)
	}
	return types.Extrinsic{
		Version: types.ExtrinsicVersion,
		Call: types.Call{
			ModuleIndex:   runtime.TimestampModuleIndex,
			FunctionIndex: timestamp.CallSet,
			Args:          args,
		},
	}
}
