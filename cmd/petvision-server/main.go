package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/bootstrap"
)

func main() {
	if err := bootstrap.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "petvision-server failed: %v\n", err)
		os.Exit(1)
	}
}
