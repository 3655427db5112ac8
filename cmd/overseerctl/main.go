// Command overseerctl is a thin HTTP client for overseerd: submit a run,
// check its status, stream its events, or replay it from a step.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
