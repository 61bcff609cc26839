package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pixelfirm/cmd/pixelfirm/devices"
	"pixelfirm/cmd/pixelfirm/download"
	"pixelfirm/cmd/pixelfirm/history"
	manifestcmd "pixelfirm/cmd/pixelfirm/manifest"
	"pixelfirm/pkg/version"
)

func main() {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "pixelfirm",
		Short:   "pixelfirm - download the latest factory image for a device codename",
		Version: version.GetBuildID(),
		PersistentPreRun: func(c *cobra.Command, args []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(download.GetCommand())
	cmd.AddCommand(devices.GetCommand())
	cmd.AddCommand(manifestcmd.GetCommand())
	cmd.AddCommand(history.GetCommand())

	if err := cmd.Execute(); err != nil {
		slog.Error("error", "err", err)
		os.Exit(1)
	}
}
