package main

import (
	"os"

	"github.com/straviz/straviz-server/stravizservice"
)

func main() {
	// Run logs its own failures; just propagate the exit code.
	if err := stravizservice.Run(); err != nil {
		os.Exit(1)
	}
}
