package main

import (
	"os"

	"github.com/BDNK1/flowendpoint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
