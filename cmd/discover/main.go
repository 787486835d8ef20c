package main

import (
	"os"

	"github.com/zatekoja/ai-event-scanner/backend/internal/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		os.Exit(1)
	}
}
