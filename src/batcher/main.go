package main

import (
	"flag"
	"go-dia-chain/internal/config"
	"go-dia-chain/internal/messages"
	"go-dia-chain/internal/pricefeed"
)

func main() {
	var (
		configFilePath       string
		batcherConfiguration config.Config
	)

	flag.StringVar(&configFilePath, "config", "", "path to config file")
	flag.StringVar(&configFilePath, "c", "", "path to config file")
	flag.Parse()
	if configFilePath == "" {
		messages.NewNodeMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_NO_CUSTOM_PATH_SPECIFIED).ConsoleLog()
		batcherConfiguration = config.LoadConfig(nil)
	} else {
		batcherConfiguration = config.LoadConfig(&configFilePath)
	}

	feed := pricefeed.NewFeed(batcherConfiguration.PriceFeedConfig)
	feed.Run()
}
