package main

import (
	"os"

	"github.com/vkngwrapper/bufmgr/cmd/bufmgr-stats/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
