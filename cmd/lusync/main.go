package main

import (
	"os"

	"github.com/hnrobert/lusync/internal/cli"
	"github.com/hnrobert/lusync/internal/logger"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
