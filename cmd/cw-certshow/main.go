package main

import (
	"os"

	"github.com/certwatch-app/cw-certshow/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
