package main

import (
	"fmt"
	"os"

	"github.com/gatekeeperhq/gatekeeper/cmd/gk-server/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
