package manifest

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	manifestpkg "pixelfirm/pkg/manifest"
)

func init() {
	Registry.Register(func(c *cobra.Command) {
		c.AddCommand(&cobra.Command{
			Use:   "verify <codename>",
			Short: "HEAD-check the image URL behind a manifest entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				cfg, resolver, err := loadConfigAndResolver()
				if err != nil {
					return err
				}
				m, err := resolver.Resolve(c.Context())
				if err != nil {
					return err
				}
				entry, err := m.EntryFor(args[0])
				if err != nil {
					return err
				}

				client := &http.Client{Timeout: cfg.Timeout()}
				v := manifestpkg.VerifyURL(c.Context(), client, entry.URL)

				size := "unknown"
				if v.Size != nil {
					size = fmt.Sprintf("%d", *v.Size)
				}
				fmt.Printf("url:          %s\nstatus:       %d\ncontent-type: %s\nsize:         %s\nok:           %t\n",
					entry.URL, v.Status, v.ContentType, size, v.OK)
				if !v.OK {
					return fmt.Errorf("verification failed for %q", args[0])
				}
				return nil
			},
		})
	})
}
