// Package main is the entry point for the qsgov CLI binary.
package main

import (
	"os"

	cli "qs-governance/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
