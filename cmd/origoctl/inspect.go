package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftpursuit/origo/internal/replayfmt"
)

func newInspectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <journal>",
		Short: "Print the records in a journal file without replaying them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, opts *RootOptions, path string) error {
	out := cmd.OutOrStdout()

	switch opts.Variant {
	case "disk":
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("origoctl: %w", err)
		}
		defer f.Close()

		header, err := replayfmt.ReadBinaryHeader(f)
		if err != nil {
			return fmt.Errorf("origoctl: %w", err)
		}
		if _, err := f.Seek(0, 0); err != nil {
			return fmt.Errorf("origoctl: %w", err)
		}
		records, err := replayfmt.IterateBinary(f)
		if err != nil {
			fmt.Fprintf(out, "header reports %d committed records; iteration stopped with error: %v\n", header, err)
		}
		fmt.Fprintf(out, "header: %d committed records\n", header)
		for _, r := range records {
			fmt.Fprintf(out, "%4d  %-24s %d bytes\n", r.Index, r.Identifier, len(r.Payload))
		}
		if uint64(len(records)) != header {
			return fmt.Errorf("origoctl: header count %d does not match %d records actually read", header, len(records))
		}
	case "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("origoctl: %w", err)
		}
		records, err := replayfmt.IterateText(data)
		var torn *replayfmt.TornTailError
		if err != nil {
			if errors.As(err, &torn) {
				fmt.Fprintf(out, "torn tail: %d trailing bytes after record %d\n", len(torn.Remaining), torn.Index)
			} else {
				return fmt.Errorf("origoctl: %w", err)
			}
		}
		for _, r := range records {
			fmt.Fprintf(out, "%4d  %-24s %d bytes\n", r.Index, r.Identifier, len(r.Payload))
		}
	}
	return nil
}
