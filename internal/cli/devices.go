package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"capdeck/internal/device"
)

func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := deps.NewApp()
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()

			local, ok := application.Devices().(*device.LocalDevices)
			if !ok {
				fmt.Fprintln(out, "Demo mode: synthetic microphone and camera.")
				return nil
			}

			inputs, err := device.ListAudioInputs()
			if err != nil {
				return fmt.Errorf("listing audio inputs: %w", err)
			}
			fmt.Fprintln(out, "Audio inputs:")
			if len(inputs) == 0 {
				fmt.Fprintln(out, "  (none)")
			}
			for _, in := range inputs {
				marker := " "
				if in.Default {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %s (%d ch, %.0f Hz)\n", marker, in.Name, in.Channels, in.SampleRate)
			}

			fmt.Fprintln(out, "Cameras:")
			camera := local.Camera()
			if camera == nil || len(camera.Devices()) == 0 {
				fmt.Fprintln(out, "  (none)")
				return nil
			}
			for _, d := range camera.Devices() {
				fmt.Fprintf(out, "  %-5s %s\n", d.Facing, d.Path)
			}
			return nil
		},
	}
}
