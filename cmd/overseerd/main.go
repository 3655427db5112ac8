// Command overseerd runs the run supervisor and HTTP control plane: the
// long-lived process that drains the pending-run queue and serves
// registration, submission, and replay requests.
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
