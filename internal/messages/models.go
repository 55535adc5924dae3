package messages

import "runtime"

type NodeLogLevel string

var (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	gray   = "\033[37m"
	white  = "\033[97m"

	// configuration info messages
	CONFIG_NO_CUSTOM_PATH_SPECIFIED = "No config file path specified with --c, --configfile. Using default path."
	CONFIG_STARTED_LOADING          = "The node configuration is loaded from %s"
	CONFIG_FINISHED_LOADING         = "The node configuration successfully loaded"

	// rocksdb messages
	ROCKSDB_CONNECTING                    = "Opening rocksdb chain database at %s"
	ROCKSDB_FAILED_TO_CONNECT             = "Failed to open rocksdb chain database at %s"
	ROCKSDB_FAILED_LOOKUP_KEY             = "Failed to get lookup key for block %d"
	ROCKSDB_CONNECTED                     = "Successfully opened rocksdb chain database"
	ROCKSDB_FAILED_TO_GET_FINALIZED_BLOCK = "Failed to get last finalized block"
	ROCKSDB_FAILED_BODY                   = "Failed to retrieve block body from rocksdb"
	ROCKSDB_FAILED_HEADER                 = "Failed to retrieve block header from rocksdb"
	ROCKSDB_FAILED_EVENTS                 = "Failed to retrieve block events from rocksdb"
	ROCKSDB_FAILED_WRITE                  = "Failed to write block %d to rocksdb"
	ROCKSDB_FAILED_GENESIS                = "Failed to get genesis hash from rocksdb"

	// postgres
	POSTGRES_CONNECTING                        = "Connecting to postgres database using '%s'"
	POSTGRES_CONNECTED                         = "Successfully connected to postgres instance"
	POSTGRES_FAILED_TO_PARSE_CONNECTION_STRING = "Failed to parse postgres connection string"
	POSTGRES_FAILED_TO_CONNECT                 = "Failed to connect to postgres database"
	POSTGRES_FAILED_TO_PING                    = "Failed to ping postgres database instance"
	POSTGRES_FAILED_TO_CREATE_TABLE            = "Failed to create archive table"
	POSTGRES_FAILED_TO_START_TRANSACTION       = "Failed to start postgres transaction"
	POSTGRES_FAILED_TO_COPY_FROM               = "Postgres failed to copy from rows"
	POSTGRES_WRONG_NUMBER_OF_COPIED_ROWS       = "Postgres copied %d rows out of %d"
	POSTGRES_FAILED_TO_COMMIT_TX               = "Failed to commit postgres transaction"

	// genesis
	GENESIS_STARTED_LOADING  = "The genesis configuration is loaded from %s"
	GENESIS_FAILED_TO_LOAD   = "Failed to load the genesis configuration"
	GENESIS_FAILED_TO_BUILD  = "Failed to build genesis state for chain %s"
	GENESIS_FINISHED_LOADING = "Genesis state successfully built, state root %s"

	// runtime
	RUNTIME_COMPOSING         = "Composing runtime modules"
	RUNTIME_FAILED_TO_COMPOSE = "Failed to compose the runtime"
	RUNTIME_COMPOSED          = "Runtime composed with %d modules"

	// archive
	ARCHIVE_CLIENT_STARTING = "Starting archive client with %d workers"
	ARCHIVE_BLOCK_FAILED    = "Failed to archive block %d"

	// rpc
	RPC_SERVER_STARTING = "Runtime RPC server listening on %s"
	RPC_SERVER_FAILED   = "Runtime RPC server stopped"

	// sealer
	SEALER_STARTING        = "Starting dev sealer with a %s block time"
	SEALER_SEALED_BLOCK    = "Sealed block %d with %d extrinsic(s), state root %s"
	SEALER_FAILED_TO_SEAL  = "Failed to seal block %d"
	SEALER_INVALID_INBOUND = "Dropping invalid inbound extrinsic"

	// price feed
	PRICEFEED_STARTING         = "Starting price feed with %d source(s) and a %s poll interval"
	PRICEFEED_SOURCE_FAILED    = "Price source %s failed"
	PRICEFEED_SUBMITTED        = "Submitted %d quotation(s) as %s"
	PRICEFEED_FAILED_TO_SUBMIT = "Failed to submit quotations"
)

const (
	// log levels used by the chain node
	LOG_LEVEL_INFO    NodeLogLevel = "INFO"
	LOG_LEVEL_ERROR   NodeLogLevel = "ERROR"
	LOG_LEVEL_WARNING NodeLogLevel = "WARNING"
	LOG_LEVEL_SUCCESS NodeLogLevel = "SUCCESS"
)

func init() {
	if runtime.GOOS == "windows" {
		reset = ""
		red = ""
		green = ""
		yellow = ""
		blue = ""
		purple = ""
		cyan = ""
		gray = ""
		white = ""
	}
}

type NodeMessage struct {
	LogLevel       NodeLogLevel
	Component      string
	Error          error
	FormatString   string
	AdditionalInfo []interface{}
}
