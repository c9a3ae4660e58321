// Command kip is a thin demonstration CLI over package kip: it reads a
// grammar file and an input file from disk and prints the resulting parse
// or action value. It is a convenience wrapper, not the toolkit's API —
// programs embed package kip and its subpackages directly.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kip-lang/kip"
	"github.com/kip-lang/kip/action"
	"github.com/kip-lang/kip/bootstrap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("kip: command failed")
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "kip",
		Short: "kip parses text against parsing-expression grammars",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newParseCmd(), newBootstrapCmd())
	return root
}

func newParseCmd() *cobra.Command {
	var entry string
	var raw bool

	cmd := &cobra.Command{
		Use:   "parse <grammar-file> <input-file>",
		Short: "parse an input file against a canonical-dialect grammar file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammarSrc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			input, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			g, err := kip.Compile(string(grammarSrc))
			if err != nil {
				return err
			}
			_ = entry // canonical dialect infers its own entry rule

			ctx := context.Background()
			if raw {
				m, err := g.Parse(ctx, string(input))
				if err != nil {
					return err
				}
				fmt.Printf("matched %d..%d\n", m.Span.Start, m.Span.End)
				return nil
			}

			value, err := g.Eval(ctx, string(input), action.NewExprHost())
			if err != nil {
				return err
			}
			fmt.Printf("%v\n", value)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "entry rule name (ignored: a canonical-dialect grammar is always entered at its first rule)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the matched span, skipping action evaluation")
	return cmd
}

func newBootstrapCmd() *cobra.Command {
	var entry string

	cmd := &cobra.Command{
		Use:   "bootstrap <description-file>",
		Short: "grow a grammar from the seed grammar until it reaches a fixed point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := bootstrap.Iterate(context.Background(), string(description), entry)
			if err != nil {
				return err
			}
			fmt.Printf("bootstrapped %d rules, entry %q\n", len(g.RuleNames()), g.EntryName())
			return nil
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "entry rule name (defaults to the description's first rule)")
	return cmd
}
