// bench - cat32 throughput and distribution runner
//
// Assigns a synthetic key set in three shapes (plain text, records, maps)
// and reports:
//   - Assignments per second for each shape
//   - The bucket histogram and its chi-square statistic
//
// Output: a markdown report on stdout, optionally copied to --out.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	cmd := newBenchCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newBenchCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := defaultBenchOptions()
	var outPath string

	cmd := &cobra.Command{
		Use:           "bench",
		Short:         "Measure cat32 assignment throughput and bucket spread",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(stderr, "cat32 Benchmark Runner\n")
			fmt.Fprintf(stderr, "======================\n")
			fmt.Fprintf(stderr, "Keys: %d  Iterations: %d  Cache: %d\n\n", opts.Keys, opts.Iterations, opts.CacheSize)

			report, err := runBench(opts)
			if err != nil {
				return err
			}

			w := stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create report: %w", err)
				}
				defer f.Close()
				w = io.MultiWriter(stdout, f)
			}
			writeMarkdown(w, report)
			if outPath != "" {
				fmt.Fprintf(stderr, "Markdown written to: %s\n", outPath)
			}
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.IntVar(&opts.Keys, "keys", opts.Keys, "number of distinct synthetic keys")
	flags.IntVar(&opts.Iterations, "iterations", opts.Iterations, "passes over the key set per shape")
	flags.IntVar(&opts.CacheSize, "cache", opts.CacheSize, "LRU cache size (0 disables)")
	flags.StringVar(&opts.Salt, "salt", "", "salt mixed into every key")
	flags.StringVar(&outPath, "out", "", "also write the markdown report to this file")
	return cmd
}
