package main

import (
	"os"

	"github.com/lexiquest/lexiquest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
