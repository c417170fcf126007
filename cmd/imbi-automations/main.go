package main

import (
	"fmt"
	"os"

	"github.com/AWeber-Imbi/imbi-automations/pkg/cli"
)

var version = "dev"

func main() {
	root := cli.NewRootCommand(version)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
