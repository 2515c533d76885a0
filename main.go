package main

import (
	"os"

	"github.com/apetrov/resume-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
