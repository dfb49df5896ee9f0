package main

import (
	"os"

	"github.com/dhanwis/tutoradmin/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
