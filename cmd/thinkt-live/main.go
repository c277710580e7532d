// thinkt-live follows AI coding assistant sessions as they happen.
package main

import (
	"os"

	"github.com/wethinkt/thinkt-live/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
