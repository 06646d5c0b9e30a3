package main

import (
	"errors"
	"fmt"
	"os"

	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The report already explains these.
		if !errors.Is(err, errRegressions) && !errors.Is(err, errDuplicateTables) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
