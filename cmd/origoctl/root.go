// Package main implements origoctl, a small CLI for inspecting an origo
// journal file from outside a running engine; snapshot files are not read.
// Out of core scope
// per spec §1 ("CLI argument parsing" is an external collaborator), built
// the way the retrieval pack's own cobra-based CLI builds its command tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every origoctl subcommand.
type RootOptions struct {
	Variant string // "disk" | "json"
}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "origoctl",
		Short: "origoctl inspects origo journal files",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Variant {
			case "disk", "json":
				return nil
			default:
				return fmt.Errorf("invalid --variant %q: must be disk or json", opts.Variant)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Variant, "variant", "disk", "journal variant (disk|json)")

	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newReplayCommand(opts))
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
