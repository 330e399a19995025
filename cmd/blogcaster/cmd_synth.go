package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/blogcaster/backend/internal/config"
	"github.com/zhouzirui/blogcaster/backend/internal/logging"
	"github.com/zhouzirui/blogcaster/backend/internal/service/conversion"
	"github.com/zhouzirui/blogcaster/backend/internal/service/speech"
)

func newSynthCmd() *cobra.Command {
	var (
		text    string
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Drive the configured synthesis backend directly, without the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text == "" {
				return errors.New("--text is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			defer logging.Sync(logger)

			synth, err := speech.NewFromConfig(cfg, logger)
			if err != nil {
				return fmt.Errorf("%s backend unavailable: %w", cfg.Backend, err)
			}
			if closer, ok := synth.(io.Closer); ok {
				defer closer.Close()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			return runSynth(ctx, cmd, synth, text, output, cfg.Store.SnippetMaxLength)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Text to synthesize")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output path (defaults to a derived file name)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Synthesis timeout")
	return cmd
}

func runSynth(ctx context.Context, cmd *cobra.Command, synth speech.Synthesizer, text, output string, maxLength int) error {
	started := time.Now()
	audio, err := synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	if output == "" {
		output = conversion.DeriveFilename(text, time.Now(), audio.Format.Extension(), maxLength)
	}
	if err := os.WriteFile(output, audio.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d Hz, %d bytes) in %s\n",
		output, audio.Format, audio.SampleRate, len(audio.Data), time.Since(started).Round(time.Millisecond))
	return nil
}
