package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/camnode/internal/capture"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	opts := &SessionOptions{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		Long:  `Enumerates the video and audio devices of the configured device profile with their focus, exposure, flash and torch capabilities.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			platform, err := opts.loadPlatform()
			if err != nil {
				return err
			}
			registry := capture.NewRegistry(platform)

			var devices []capture.Device
			devices = append(devices, registry.Devices(capture.MediaVideo)...)
			devices = append(devices, registry.Devices(capture.MediaAudio)...)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(devices)
			}
			return printDevices(cmd.OutOrStdout(), devices)
		},
	}

	addSessionFlags(cmd, opts)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print devices as JSON")
	return cmd
}

func printDevices(out io.Writer, devices []capture.Device) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "No capture devices found")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tPOSITION\tFOCUS\tEXPOSURE\tFLASH\tTORCH")
	for _, d := range devices {
		c := d.Capabilities
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Kind, d.Position,
			joinModes(c.FocusModes), joinModes(c.ExposureModes),
			joinModes(c.FlashModes), joinModes(c.TorchModes))
	}
	return w.Flush()
}

func joinModes[M ~string](modes []M) string {
	if len(modes) == 0 {
		return "-"
	}
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}
