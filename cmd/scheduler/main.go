package main

import (
	"os"

	"github.com/benvon/smart-schedule/cmd/scheduler/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
