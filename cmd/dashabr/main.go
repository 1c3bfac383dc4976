// Command dashabr plays a DASH manifest with one of three adaptive
// bitrate strategies and reports per-segment throughput.
package main

import (
	"os"

	"github.com/peymanj-dashabr/dashabr/cmd/dashabr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
