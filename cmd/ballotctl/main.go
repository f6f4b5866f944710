package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/orgvote/internal/ballotctl"
)

func main() {
	if err := ballotctl.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
