package archive

import (
	"fmt"
	"go-dia-chain/internal/db/postgres"
	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/types"
	"strings"
)

type (
	// ArchiveClient indexes sealed blocks into postgres. Workers decode the
	// block payloads into rows and a single db worker writes them, one
	// transaction per block.
	ArchiveClient struct {
		pgClient     archiveRepoClient
		runtime      *runtime.Runtime
		workersCount int
		jobChan      chan *ArchiveJob
	}

	archiveRepoClient struct {
		*postgres.PostgresClient
		dbChan chan *blockRows
	}
)

func NewArchiveClient(
	pgClient *postgres.PostgresClient,
	chainRuntime *runtime.Runtime,
	workersCount int,
) *ArchiveClient {

	jobChan := make(chan *ArchiveJob, workersCount)
	dbChan := make(chan *blockRows, workersCount)

	return &ArchiveClient{
		pgClient: archiveRepoClient{
			pgClient,
			dbChan,
		},
		runtime:      chainRuntime,
		workersCount: workersCount,
		jobChan:      jobChan,
	}
}

// Run creates the archive tables and starts the workers
func (client *ArchiveClient) Run() {
	messages.NewNodeMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.ARCHIVE_CLIENT_STARTING,
		client.workersCount,
	).ConsoleLog()

	client.pgClient.initTables()
	go client.pgClient.startDbWorker()

	count := 0
	for count < client.workersCount {
		go client.startWorker()
		count++
	}
}

// Archive queues one sealed block for indexing
func (client *ArchiveClient) Archive(job *ArchiveJob) {
	client.jobChan <- job
}

func (client *ArchiveClient) Close() {
	close(client.jobChan)
	close(client.pgClient.dbChan)
}

func (client *ArchiveClient) startWorker() {
	for job := range client.jobChan {
		rows := &blockRows{}
		blockHeight := job.Block.Header.Number

		for idx, extrinsic := range job.Block.Extrinsics {
			txHash, err := extrinsic.Hash()
			if err != nil {
				messages.NewNodeMessage(
					messages.LOG_LEVEL_WARNING,
					messages.GetComponent(client.startWorker),
					err,
					messages.ARCHIVE_BLOCK_FAILED,
					blockHeight,
				).ConsoleLog()
				continue
			}

			moduleName, callName := client.resolveCallNames(extrinsic.Call)
			outcome := outcomeForIndex(job.Outcomes, uint32(idx))
			rows.extrinsics = append(rows.extrinsics, &Extrinsic{
				Id:          fmt.Sprintf("%d-%d", blockHeight, idx),
				TxHash:      txHash.String(),
				Module:      moduleName,
				Call:        callName,
				BlockHeight: blockHeight,
				Success:     outcome.Success,
				IsSigned:    extrinsic.IsSigned(),
				Fee:         outcome.Fee,
				Weight:      outcome.Weight,
			})
		}

		for idx, event := range job.Events {
			rows.events = append(rows.events, &Event{
				Id:          fmt.Sprintf("%d-%d", blockHeight, idx),
				Module:      strings.ToLower(event.Module),
				Event:       event.Variant,
				BlockHeight: blockHeight,
			})
		}

		client.pgClient.insertBlockRows(rows)
	}
}

// resolveCallNames maps a raw call to the registered module and call names.
// Unknown indices are archived as hex so a block never fails to index.
func (client *ArchiveClient) resolveCallNames(call types.Call) (string, string) {
	module, ok := client.runtime.ModuleByIndex(call.ModuleIndex)
	if !ok {
		return fmt.Sprintf("0x%02x", call.ModuleIndex), fmt.Sprintf("0x%02x", call.FunctionIndex)
	}
	handler, ok := module.Calls()[call.FunctionIndex]
	if !ok {
		return strings.ToLower(module.Name()), fmt.Sprintf("0x%02x", call.FunctionIndex)
	}
	return strings.ToLower(module.Name()), handler.Name
}

func outcomeForIndex(outcomes []runtime.DispatchOutcome, index uint32) runtime.DispatchOutcome {
	for _, outcome := range outcomes {
		if outcome.Index == index {
			return outcome
		}
	}
	return runtime.DispatchOutcome{Index: index}
}
