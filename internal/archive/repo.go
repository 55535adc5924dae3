package archive

import (
	"context"
	"fmt"
	"go-dia-chain/internal/messages"

	"github.com/jackc/pgx/v4"
)

const (
	extrinsicsTableDdl = `CREATE TABLE IF NOT EXISTS extrinsics (
		id TEXT PRIMARY KEY,
		tx_hash TEXT NOT NULL,
		module TEXT NOT NULL,
		call TEXT NOT NULL,
		block_height INTEGER NOT NULL,
		success BOOLEAN NOT NULL,
		is_signed BOOLEAN NOT NULL,
		fee BIGINT NOT NULL,
		weight BIGINT NOT NULL
	)`
	eventsTableDdl = `CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		module TEXT NOT NULL,
		event TEXT NOT NULL,
		block_height INTEGER NOT NULL
	)`
)

// blockRows groups the rows produced from a single sealed block so they land
// in one transaction.
type blockRows struct {
	extrinsics []*Extrinsic
	events     []*Event
}

// initTables creates the archive tables on first start.
func (repoClient *archiveRepoClient) initTables() {
	for _, ddl := range []string{extrinsicsTableDdl, eventsTableDdl} {
		if _, err := repoClient.Pool.Exec(context.Background(), ddl); err != nil {
			messages.NewNodeMessage(
				messages.LOG_LEVEL_ERROR,
				messages.GetComponent(repoClient.initTables),
				err,
				messages.POSTGRES_FAILED_TO_CREATE_TABLE,
			).ConsoleLog()
		}
	}
}

// insertBlockRows is called by the archive workers to queue the rows of one
// block for db insertion.
func (repoClient *archiveRepoClient) insertBlockRows(rows *blockRows) {
	repoClient.dbChan <- rows
}

func (repoClient *archiveRepoClient) startDbWorker() {
	for rows := range repoClient.dbChan {
		repoClient.insertBatch(rows)
	}
}

// insertBatch inserts all rows of one block in a single transaction
func (repoClient *archiveRepoClient) insertBatch(rows *blockRows) {
	tx, err := repoClient.Pool.BeginTx(context.Background(), pgx.TxOptions{})
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(repoClient.insertBatch),
			err,
			messages.POSTGRES_FAILED_TO_START_TRANSACTION,
		).ConsoleLog()
	}
	defer tx.Rollback(context.Background())

	extrinsicItems := make([][]interface{}, len(rows.extrinsics))
	for i, extrinsic := range rows.extrinsics {
		extrinsicItems[i] = []interface{}{
			extrinsic.Id,
			extrinsic.TxHash,
			extrinsic.Module,
			extrinsic.Call,
			extrinsic.BlockHeight,
			extrinsic.Success,
			extrinsic.IsSigned,
			extrinsic.Fee,
			extrinsic.Weight,
		}
	}
	repoClient.copyRows(
		tx,
		"extrinsics",
		[]string{"id", "tx_hash", "module", "call", "block_height", "success", "is_signed", "fee", "weight"},
		extrinsicItems,
	)

	eventItems := make([][]interface{}, len(rows.events))
	for i, event := range rows.events {
		eventItems[i] = []interface{}{
			event.Id,
			event.Module,
			event.Event,
			event.BlockHeight,
		}
	}
	repoClient.copyRows(
		tx,
		"events",
		[]string{"id", "module", "event", "block_height"},
		eventItems,
	)

	err = tx.Commit(context.Background())
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(repoClient.insertBatch),
			err,
			messages.POSTGRES_FAILED_TO_COMMIT_TX,
		).ConsoleLog()
	}
}

func (repoClient *archiveRepoClient) copyRows(tx pgx.Tx, table string, columns []string, batch [][]interface{}) {
	if len(batch) == 0 {
		return
	}

	copyLen, err := tx.CopyFrom(
		context.Background(),
		pgx.Identifier{table},
		columns,
		pgx.CopyFromRows(batch),
	)
	if err != nil {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(repoClient.copyRows),
			err,
			messages.POSTGRES_FAILED_TO_COPY_FROM,
		).ConsoleLog()
	}
	if copyLen != int64(len(batch)) {
		messages.NewNodeMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(repoClient.copyRows),
			fmt.Errorf(messages.POSTGRES_WRONG_NUMBER_OF_COPIED_ROWS, copyLen, len(batch)),
			"",
		).ConsoleLog()
	}
}
