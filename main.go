package main

import (
	"os"

	"github.com/hirescreen/hirescreen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
