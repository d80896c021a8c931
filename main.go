// Idiomatic entrypoint for Cobra CLI that delegates handling to the Cobra root command in cmd/root.go

package main

import (
	"fmt"
	"os"

	"github.com/ppsim/ppsim/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(1)
		}
	}()
	cmd.Execute()
}
