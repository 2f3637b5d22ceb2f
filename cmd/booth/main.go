package main

import (
	"os"

	"photobooth/cmd/booth/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
