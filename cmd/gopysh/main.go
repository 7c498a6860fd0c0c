// Command gopysh is an interactive POSIX-lite shell with job control.
package main

import (
	"os"

	"github.com/drpotato/pysh/internal/shell/cli"
)

func main() {
	os.Exit(cli.Run())
}
