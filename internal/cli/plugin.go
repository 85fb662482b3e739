package cli

import (
	"github.com/jenkinsator/jenkinsator/internal/config"
	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/target"
	"github.com/spf13/cobra"
)

func newPluginCmd(a *app) *cobra.Command {
	var listAll bool

	cmd := &cobra.Command{
		Use:   "plugin [server-url]",
		Short: "List installed plugins",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			if !listAll {
				return &config.ConfigError{Msg: "no action given for plugin: pass --list-all"}
			}
			return a.execute(cmd.Context(), cfg, ir.KindJob, "plugin.list-all", engine.ListPlugins{}, target.Set{})
		},
	}

	cmd.Flags().BoolVar(&listAll, "list-all", false, "List every installed plugin, sorted by display name")
	return cmd
}
