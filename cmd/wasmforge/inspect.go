package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/api"
	"github.com/wasmforge/wasmforge/internal/engine"
)

func newInspectCommand() *cobra.Command {
	var functions int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Compile a synthetic module and list each function's type signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			eng := engine.NewEngine(ctx, api.CoreFeatureSignExtensionOps, nil)
			defer eng.Close()

			mod := synthesizeModule(functions)
			if err := eng.CompileModule(ctx, mod, nil, false); err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			for i := 0; i < functions; i++ {
				fmt.Fprintf(cmd.OutOrStdout(), "func[%d]: type=%s\n", i, mod.TypeSection[0].String())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&functions, "functions", 8, "number of synthetic functions to compile")
	return cmd
}
