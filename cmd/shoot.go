package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CreateShootCmd creates the shoot command.
func CreateShootCmd() *cobra.Command {
	opts := &SessionOptions{}
	var output string

	cmd := &cobra.Command{
		Use:   "shoot",
		Short: "Capture one still image",
		Long:  `Starts a capture session, takes a single still image and writes it as JPEG.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			session, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer session.close()

			img, err := session.captureStill(ctx)
			if err != nil {
				return fmt.Errorf("failed to capture still image: %w", err)
			}
			if err := os.WriteFile(output, img.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d %s, %s)\n", output, img.Width, img.Height, img.Format, img.Orientation)
			return nil
		},
	}

	addSessionFlags(cmd, opts)
	cmd.Flags().StringVarP(&output, "output", "o", "capture.jpg", "Output file")
	return cmd
}
