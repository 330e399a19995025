package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/blogcaster/backend/internal/client"
)

func newConvertCmd(root *rootOptions) *cobra.Command {
	var (
		text    string
		file    string
		useFile bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert text or an uploaded file to speech",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var upload []byte
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				upload = data
			}

			input, err := client.ResolveText(text, upload, useFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Converting... long posts can take a few minutes.")

			c := root.client()
			filename, err := c.Convert(cmd.Context(), input)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(out, "Audio saved as %s\n", filename)

			files, err := c.List(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			printFiles(cmd, files)
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Text to convert")
	cmd.Flags().StringVarP(&file, "file", "f", "", "UTF-8 text file to convert")
	cmd.Flags().BoolVar(&useFile, "use-file", false, "Prefer the file over --text")
	return cmd
}

// describeError 将客户端错误转为面向用户的提示
func describeError(err error) error {
	var httpErr *client.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return fmt.Errorf("error %d: %s", httpErr.Status, httpErr.Detail)
	case errors.Is(err, client.ErrConnection):
		return fmt.Errorf("could not connect to the backend, is it running? (%w)", err)
	case errors.Is(err, client.ErrTimeout):
		return fmt.Errorf("the request timed out, try a shorter text (%w)", err)
	default:
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
}
