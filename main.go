package main

import (
	"os"

	"github.com/flowboard/flowboard/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
