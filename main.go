package main

import (
	"os"

	"github.com/MannyJMusic/dfl-desktop/cmd"
	"github.com/MannyJMusic/dfl-desktop/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
