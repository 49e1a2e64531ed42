// Package cli defines the capdeck command tree.
package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"capdeck/config"
	"capdeck/internal/app"
	"capdeck/internal/ui"
	"capdeck/internal/version"
)

// Dependencies carries what commands need. The app is built lazily so
// commands that never touch hardware do not initialize it.
type Dependencies struct {
	Config *config.Config
	Log    *logrus.Logger
	NewApp func() (*app.App, error)
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "capdeck",
		Short: "Try out the capture devices on this machine",
		Long: "An interactive deck for the capture devices on this machine:\n" +
			"a one-shot location lookup, microphone recording with a live\n" +
			"waveform, and camera preview with photos and clips.",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := deps.NewApp()
			if err != nil {
				return err
			}
			defer application.Close()

			p := tea.NewProgram(ui.NewModel(application), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.PersistentFlags().BoolVar(&deps.Config.Demo, "demo", deps.Config.Demo,
		"use synthetic devices instead of hardware")
	rootCmd.PersistentFlags().BoolVar(&deps.Config.Debug, "debug", deps.Config.Debug,
		"verbose logging and blocking failure notices")

	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
