package main

import (
	"os"

	"github.com/SscSPs/bookkeeping_ledger/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
