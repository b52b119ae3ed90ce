package main

import (
	"syncloop/cmd"
)

func main() {
	// Cobra exits the process itself when a command fails.
	cmd.Execute()
}
