package main

import (
	"os"

	"github.com/stackgnosis/sg-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
