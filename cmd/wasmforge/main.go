// Command wasmforge is a thin CLI front-end over the compiler and
// runtime packages: it exists to drive the engine end-to-end from a
// terminal, not to be a full WebAssembly toolchain front-end.
//
// Unlike tetratelabs/wazero's cmd/wazero (stdlib flag, a switch over
// flag.Arg(0)), this tree's command surface is built with cobra/pflag,
// matching how larger CLI trees in the retrieval pack (e.g. moby-moby's
// cmd/dockerd) structure a multi-subcommand binary: one root command,
// one file per subcommand, flags bound with pflag.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wasmforge",
		Short:         "wasmforge compiles and runs WebAssembly modules ahead of time",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newCompileCommand())
	root.AddCommand(newInspectCommand())
	root.AddCommand(newMetricsCommand())
	return root
}
