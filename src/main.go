package main

import (
	"flag"
	"go-dia-chain/internal/config"
	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/node"
)

func main() {
	var (
		configFilePath    string
		nodeConfiguration config.Config
	)

	flag.StringVar(&configFilePath, "config", "", "path to config file")
	flag.StringVar(&configFilePath, "c", "", "path to config file")
	flag.Parse()
	if configFilePath == "" {
		messages.NewNodeMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_NO_CUSTOM_PATH_SPECIFIED).ConsoleLog()
		nodeConfiguration = config.LoadConfig(nil)
	} else {
		nodeConfiguration = config.LoadConfig(&configFilePath)
	}

	orchestrator := node.NewOrchestrator(nodeConfiguration)
	defer orchestrator.Close()

	orchestrator.Run()
}
