package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/sqlra/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Commands report their own failures; this is cobra's usage errors.
		fmt.Fprintf(os.Stderr, "%s\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
