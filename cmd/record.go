package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// CreateRecordCmd creates the record command.
func CreateRecordCmd() *cobra.Command {
	opts := &SessionOptions{}
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a movie of fixed length",
		Long: `Starts a capture session, records for the given duration into the output directory ` +
			`and prints the path of the finished recording. Interrupting stops the recording early.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			if duration <= 0 {
				return fmt.Errorf("duration must be positive, got %s", duration)
			}

			setup, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			session, err := openSession(setup, opts)
			if err != nil {
				return err
			}
			defer session.close()

			path, err := session.startRecording(setup)
			if err != nil {
				return fmt.Errorf("failed to start recording: %w", err)
			}
			session.logger.Info("Recording", "path", path, "duration", duration)

			timer := time.NewTimer(duration)
			select {
			case <-timer.C:
			case <-cmd.Context().Done():
				timer.Stop()
			}

			done, cancelStop := context.WithTimeout(context.Background(), opts.Timeout)
			defer cancelStop()
			finished, err := session.stopRecording(done)
			if err != nil {
				return fmt.Errorf("failed to stop recording: %w", err)
			}
			if finished.err != nil {
				return fmt.Errorf("recording %s finished with error: %w", finished.path, finished.err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", finished.path, finished.duration.Round(time.Millisecond))
			return nil
		},
	}

	addSessionFlags(cmd, opts)
	cmd.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "Recording length")
	return cmd
}
