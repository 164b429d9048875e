package main

import (
	"os"

	"github.com/fatih/color"

	"kdeploy/cmd"
	"kdeploy/internal/cleanup"
)

func main() {
	os.Exit(run())
}

// run wraps the CLI so the cleanup registry is flushed on every exit path,
// including command failure.
func run() (code int) {
	reg := cleanup.New()
	defer func() {
		if err := reg.Flush(); err != nil {
			color.Red("Error: %v\n", err)
			code = 1
		}
	}()

	if err := cmd.Execute(reg); err != nil {
		color.Red("Error: %v\n", err)
		return 1
	}
	return 0
}
