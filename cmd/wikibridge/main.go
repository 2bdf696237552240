// Command wikibridge inspects wiki references and ids and manages a document
// store from the command line.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	cli := NewCLI()
	if err := cli.Execute(os.Args[1:]); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
