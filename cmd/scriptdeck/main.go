package main

import (
	"github.com/scriptdeck/scriptdeck/internal/cli"
	"github.com/scriptdeck/scriptdeck/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
