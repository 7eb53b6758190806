package main

import (
	"fmt"
	"os"

	"github.com/Charana123/dcqueue/go-queue/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
