// respcat decodes files of captured RESP requests, such as a recorded client
// stream or an append-only log, and prints one request per line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
