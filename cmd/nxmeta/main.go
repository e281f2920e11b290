package main

import (
	"fmt"
	"os"

	nxerrors "nxmeta/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad input and 1 for everything else.
func exitCode(err error) int {
	switch nxerrors.CodeOf(err) {
	case nxerrors.InvalidArgument, nxerrors.NotFound:
		return 2
	}
	return 1
}
