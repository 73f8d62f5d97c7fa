package main

import (
	"os"

	"github.com/expenzeus/expenzeus/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
