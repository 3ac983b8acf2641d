// Command cligen generates and inspects command-line parsers built from
// command descriptors.
package main

import (
	"context"
	"os"

	"github.com/spf13/afero"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitInvalidArguments = 1
	ExitIOError          = 2
	ExitParseError       = 3
	ExitGenerationError  = 4
	ExitStaleOutput      = 5
)

func main() {
	a := &app{
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	os.Exit(a.run(context.Background(), os.Args[1:]))
}
