package main

import (
	"context"
	"os"

	"github.com/dfryer1193/mediasweep/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
