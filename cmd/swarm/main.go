// Command swarm is the user-facing front-end for the swarm engine: it
// parses a config document, orchestrates a run, and re-enters itself in
// mcp-serve mode for every delegated sub-agent.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
