// nrmlc compiles block-editor rule workspaces into NRML rule documents
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/nrmlc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
