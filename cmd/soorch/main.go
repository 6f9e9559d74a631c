package main

import (
	"context"
	"os"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/cli"
)

func main() {
	if err := cli.New().Execute(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
