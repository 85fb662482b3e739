package cli

import (
	"github.com/jenkinsator/jenkinsator/internal/config"
	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/target"
	"github.com/spf13/cobra"
)

func newScriptCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "script [server-url]",
		Short: "Run a Groovy script on the master",
		Long: `Sends the script to the master's script console and prints its output.
Only use scripts you trust: they run with full administrator rights.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			if path == "" {
				return &config.ConfigError{Msg: "no script given: pass --execute-from-file"}
			}
			return a.execute(cmd.Context(), cfg, ir.KindJob, "script.execute", engine.RunScript{Path: path}, target.Set{})
		},
	}

	cmd.Flags().StringVar(&path, "execute-from-file", "", "Groovy script file (or s3://bucket/key) to execute")
	return cmd
}
