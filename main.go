package main

import (
	"context"
	"os"

	"github.com/thenoetrevino/pizarra/cmd"
	"github.com/thenoetrevino/pizarra/internal/cli"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
