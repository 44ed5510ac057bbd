// asmqc runs the quality-control stages of a genome-assembly pipeline:
// read integrity/encoding/coverage checks, assembly summary statistics and
// contig filtering with health classification.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

const (
	exitSuccess = 0
	exitError   = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	root := &cobra.Command{
		Use:           "asmqc",
		Short:         "Assembly quality-control engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		ReadsCommand(logger),
		AssemblyCommand(logger),
		FilterCommand(logger),
		BatchCommand(logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return exitSuccess
}
