package main

import (
	"fmt"
	"os"

	"portfolio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "autopost:", err)
		os.Exit(cli.ExitCode(err))
	}
}
