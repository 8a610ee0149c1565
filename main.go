// main is the entry point for the makan CLI.
package main

import (
	"github.com/GarnettJZ/makan-apa/cmd"
	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/internal/iocache"
	"go.uber.org/zap"
)

func main() {
	defer iocache.CloseCaching()
	defer func() { _ = zap.L().Sync() }()

	cmd.SetCacheManager(iocache.Manager)
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error", err)
	}
}
