package config

import (
	"encoding/json"
	"go-dia-chain/internal/messages"
	"os"
)

const (
	defaultConfigFilePath = "config.json"
)

// LoadConfig tries to load the node config from a config file given as a parameter. If the filename is a nil
// string pointer, it defaults to a constant file path "config.json"
func LoadConfig(configFilePath *string) Config {
	var (
		configPath string
		nodeConfig Config
	)

	configPath = defaultConfigFilePath
	if configFilePath != nil {
		configPath = *configFilePath
	}
	messages.NewNodeMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_STARTED_LOADING, configPath).ConsoleLog()

	configFile, err := os.Open(configPath)
	if err != nil {
		messages.NewNodeMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(LoadConfig), err, "").ConsoleLog()
	}
	defer configFile.Close()

	jsonParser := json.NewDecoder(configFile)
	err = jsonParser.Decode(&nodeConfig)
	if err != nil {
		messages.NewNodeMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(LoadConfig), err, "").ConsoleLog()
	}

	messages.NewNodeMessage(messages.LOG_LEVEL_SUCCESS, "", nil, messages.CONFIG_FINISHED_LOADING).ConsoleLog()
	return nodeConfig
}
