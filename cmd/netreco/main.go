// Package main is the entry point for the netreco CLI.
package main

import (
	"fmt"
	"os"

	"github.com/poros-project/netreco/internal/reconerr"
)

func main() {
	err := Execute()
	os.Exit(reconerr.ExitCode(unwrapExit(err)))
}

// unwrapExit prints err (if any) to stderr before handing it to
// reconerr.ExitCode, which maps the §7 error taxonomy to the §6 exit
// codes.
func unwrapExit(err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
