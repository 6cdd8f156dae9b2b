package main

import (
	"context"
	"fmt"
	"os"

	"feedback-api/src/cmd"
)

func main() {
	if err := cmd.RootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
