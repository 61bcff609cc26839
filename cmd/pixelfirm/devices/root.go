package devices

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pixelfirm/pkg/config"
	"pixelfirm/pkg/manifest"
)

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List device codenames known to the manifest",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil && cfg == nil {
				return err
			}

			resolver := &manifest.Resolver{
				RemoteURL: cfg.RemoteManifestURL,
				LocalPath: cfg.LocalManifestPath,
				Client:    &http.Client{Timeout: cfg.Timeout()},
			}
			m, err := resolver.Resolve(c.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODENAME\tVERSION\tVERIFIED")
			for _, codename := range m.Codenames() {
				entry := m[codename]
				verified := "-"
				if entry.Verified != nil {
					verified = fmt.Sprintf("%t", *entry.Verified)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", codename, entry.Version, verified)
			}
			return w.Flush()
		},
	}
}
