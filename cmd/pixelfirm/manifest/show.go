package manifest

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(c *cobra.Command) {
		c.AddCommand(&cobra.Command{
			Use:   "show",
			Short: "Print the resolved manifest as JSON",
			RunE: func(c *cobra.Command, args []string) error {
				_, resolver, err := loadConfigAndResolver()
				if err != nil {
					return err
				}
				m, err := resolver.Resolve(c.Context())
				if err != nil {
					return err
				}

				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			},
		})
	})
}
