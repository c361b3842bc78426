package main

import (
	"os"

	"text2phenotype.com/postagger/logger"
)

func main() {
	logger.SetupLogging()
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
