package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List generated audio, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := root.client().List(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			printFiles(cmd, files)
			return nil
		},
	}
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <filename>",
		Short: "Download a generated audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			data, err := root.client().Fetch(cmd.Context(), name)
			if err != nil {
				return describeError(err)
			}

			path := output
			if path == "" {
				path = filepath.Base(name)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to the file name)")
	return cmd
}

func printFiles(cmd *cobra.Command, files []string) {
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No audio files yet.")
		return
	}
	fmt.Fprintln(out, "Generated audio:")
	for _, name := range files {
		fmt.Fprintf(out, "  %s\n", name)
	}
}
