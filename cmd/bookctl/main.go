// Command bookctl inspects and maintains a catalog data directory.
//
// It opens the same store and search index as the server, so run it while
// the server is stopped.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
