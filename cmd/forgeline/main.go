// Command forgeline is the verification and release pipeline runner.
package main

import (
	"os"

	"github.com/forgeline-labs/forgeline/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
