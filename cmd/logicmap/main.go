package main

import (
	"os"

	"github.com/OFFIS-RIT/logicflow/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
