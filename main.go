package main

import (
	"os"

	"github.com/sadopc/binto/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
