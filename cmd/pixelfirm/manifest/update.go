package manifest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	manifestpkg "pixelfirm/pkg/manifest"
)

func init() {
	Registry.Register(func(c *cobra.Command) {
		var noVerify bool
		var manifestPath string

		cmd := &cobra.Command{
			Use:   "update <url>",
			Short: "Add or refresh the local manifest entry for a factory image URL",
			Long: `Add or refresh the local manifest entry for a factory image URL.

The codename and version are parsed from the image filename. Unless
--no-verify is given, the URL is HEAD-checked and the entry records the
reported size. The previous manifest file is kept as a timestamped backup.`,
			Args: cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				cfg, _, err := loadConfigAndResolver()
				if err != nil {
					return err
				}
				path := manifestPath
				if path == "" {
					path = cfg.LocalManifestPath
				}
				if path == "" {
					return fmt.Errorf("no local manifest path configured")
				}

				client := &http.Client{Timeout: cfg.Timeout()}
				entry, err := manifestpkg.UpdateEntry(c.Context(), client, path, args[0], !noVerify)
				if err != nil {
					return err
				}

				slog.Info("manifest updated", "path", path, "version", entry.Version, "url", entry.URL)
				return nil
			},
		}
		cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the HEAD check of the image URL")
		cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest file to update (default from config)")
		c.AddCommand(cmd)
	})
}
