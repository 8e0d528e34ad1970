package main

import (
	"os"

	"github.com/dermassist/dermassist/cmd/dermassist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
