package main

import (
	"fmt"
	"os"

	"github.com/eduos/schedcore/cmd"
)

func main() {
	root := cmd.SetupCLI()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
