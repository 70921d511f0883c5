// Package main is the entry point for the modelcfg application
package main

import (
	"github.com/ethpandaops/modelcfg/cmd"
)

func main() {
	cmd.Execute()
}
