package main

import (
	"context"
	"os"

	"github.com/terraincognita07/timebill/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
