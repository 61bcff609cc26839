package manifest

import (
	"net/http"

	"github.com/spf13/cobra"

	"pixelfirm/pkg/config"
	manifestpkg "pixelfirm/pkg/manifest"
	"pixelfirm/pkg/registry"
)

var Registry registry.CommandRegistry

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manifest management",
	}
	Registry.FillCommands(cmd)
	return cmd
}

// loadConfigAndResolver wires the resolver the way every manifest subcommand
// needs it.
func loadConfigAndResolver() (*config.Config, *manifestpkg.Resolver, error) {
	cfg, err := config.Load()
	if err != nil && cfg == nil {
		return nil, nil, err
	}
	resolver := &manifestpkg.Resolver{
		RemoteURL: cfg.RemoteManifestURL,
		LocalPath: cfg.LocalManifestPath,
		Client:    &http.Client{Timeout: cfg.Timeout()},
	}
	return cfg, resolver, nil
}
