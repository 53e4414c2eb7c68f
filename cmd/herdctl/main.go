// Command herdctl administers a herd deployment: it bootstraps the database schema,
// provisions operators, and issues or checks encoded credentials.
package main

import (
	"fmt"
	"os"

	"herd/cmd/internal/app"
)

func main() {
	if err := app.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "herdctl: %v\n", err)
		os.Exit(1)
	}
	os.Exit(newCLI(os.Stdout, os.Stderr, terminalPrompt).run(os.Args[1:]))
}
