package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/api"
	"github.com/wasmforge/wasmforge/internal/engine"
	"github.com/wasmforge/wasmforge/internal/filecache"
)

func newCompileCommand() *cobra.Command {
	var functions int
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a synthetic module and report how many functions and compiled modules it produced",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var fc filecache.Cache
			if cacheDir != "" {
				fc = filecache.New(context.WithValue(ctx, filecache.PathKey{}, cacheDir))
			}

			eng := engine.NewEngine(ctx, api.CoreFeatureSignExtensionOps, fc)
			mod := synthesizeModule(functions)
			if err := eng.CompileModule(ctx, mod, nil, false); err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "compiled %d function(s); compiled module count=%d\n",
				functions, eng.CompiledModuleCount())
			return eng.Close()
		},
	}

	cmd.Flags().IntVar(&functions, "functions", 8, "number of synthetic functions to compile")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist the compilation cache to this directory (defaults to in-memory only)")
	return cmd
}
