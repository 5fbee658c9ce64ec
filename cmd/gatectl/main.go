package main

import (
	"os"

	"dailybit/cmd/gatectl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
