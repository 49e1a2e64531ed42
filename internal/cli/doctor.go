package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"capdeck/internal/device"
	"capdeck/internal/geo"
)

const probeTimeout = 10 * time.Second

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check capture prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
			defer cancel()

			// Probes are independent; run them together and report each
			// outcome in its fixed slot.
			checks := make([]checkResult, 3)
			var g errgroup.Group

			g.Go(func() error {
				name, err := device.ProbeMicrophone()
				if err != nil {
					checks[0] = checkResult{"microphone", false, err.Error()}
					return nil
				}
				checks[0] = checkResult{"microphone", true, name}
				return nil
			})

			g.Go(func() error {
				camera, err := device.NewCamera(deps.Config.FFmpegPath, deps.Config.CameraDevices)
				if err != nil {
					checks[1] = checkResult{"camera", false, err.Error()}
					return nil
				}
				n := len(camera.Devices())
				checks[1] = checkResult{"camera", n > 0, fmt.Sprintf("%d device(s) found", n)}
				return nil
			})

			g.Go(func() error {
				if deps.Config.GeolocationDisabled {
					checks[2] = checkResult{"geolocation", true, "disabled in config"}
					return nil
				}
				locator := geo.NewHTTPLocator(deps.Config.GeolocationEndpoint)
				pos, err := locator.Locate(ctx)
				if err != nil {
					checks[2] = checkResult{"geolocation", false, err.Error()}
					return nil
				}
				checks[2] = checkResult{"geolocation", true, fmt.Sprintf("resolved %.2f, %.2f", pos.Lat, pos.Lon)}
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			allOK := true
			for _, c := range checks {
				mark := "ok"
				if !c.ok {
					mark = "FAIL"
					allOK = false
				}
				fmt.Fprintf(out, "%-12s %-4s %s\n", c.name, mark, c.detail)
			}
			if allOK {
				fmt.Fprintln(out, "\nAll capture prerequisites met.")
			} else {
				fmt.Fprintln(out, "\nSome capture prerequisites are missing.")
			}
			return nil
		},
	}
}
