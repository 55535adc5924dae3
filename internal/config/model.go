package config

type PostgresConfig struct {
	Enabled  bool   `json:"postgres_enabled"`
	User     string `json:"postgres_user"`
	Password string `json:"postgres_password"`
	Host     string `json:"postgres_host"`
	Port     string `json:"postgres_port"`
	Db       string `json:"postgres_db"`
	ConnPool int    `json:"postgres_conn_pool"`
}

type ChainConfig struct {
	GenesisFile    string `json:"genesis_file"`
	BlockTimeMs    int    `json:"block_time_ms"`
	RpcAddress     string `json:"rpc_address"`
	ArchiveWorkers int    `json:"archive_workers"`
}

type RocksdbConfig struct {
	RocksdbPath string `json:"rocksdb_path"`
}

type PriceFeedConfig struct {
	NodeEndpoint   string   `json:"node_endpoint"`
	SignerSeed     string   `json:"signer_seed"`
	PollIntervalMs int      `json:"poll_interval_ms"`
	Sources        []string `json:"sources"`
}

type Config struct {
	NodeVersion     string          `json:"version"`
	ChainConfig     ChainConfig     `json:"chain_config"`
	RocksdbConfig   RocksdbConfig   `json:"rocksdb_config"`
	PostgresConfig  PostgresConfig  `json:"postgres_config"`
	PriceFeedConfig PriceFeedConfig `json:"price_feed_config"`
}
