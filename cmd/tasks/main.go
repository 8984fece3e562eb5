package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/tasks/internal/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Execute() error {
	cmd := cli.NewRootCommand()
	return cmd.Execute()
}
