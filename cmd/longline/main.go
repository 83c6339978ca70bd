// Command longline is a PreToolUse hook: it reads a Claude Code tool-use
// JSON payload from stdin, decides whether the shell command it names
// should run, and writes the decision back as hook JSON. Invoked with a
// subcommand, it instead acts as a small CLI for inspecting the policy
// that would make that decision.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
