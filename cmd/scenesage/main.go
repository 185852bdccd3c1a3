package main

import (
	"os"

	"github.com/mgpai22/scenesage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
