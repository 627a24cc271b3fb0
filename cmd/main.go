package main

import (
	"os"

	"teacher-assistant-bot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
