package registry

import "github.com/spf13/cobra"

// CommandRegistry collects subcommand constructors so a parent command can be
// assembled without the parent package importing every child at build time.
type CommandRegistry struct {
	fillers []func(*cobra.Command)
}

func (r *CommandRegistry) Register(filler func(*cobra.Command)) {
	r.fillers = append(r.fillers, filler)
}

func (r *CommandRegistry) FillCommands(cmd *cobra.Command) {
	for _, filler := range r.fillers {
		filler(cmd)
	}
}
