// Command dirclean analyzes a directory tree and finds files worth cleaning up.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/dirclean/internal/cli"
)

// Global variable for CI stamping.
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
