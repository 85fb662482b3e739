package cli

import (
	"github.com/jenkinsator/jenkinsator/internal/config"
	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/target"
	"github.com/spf13/cobra"
)

func newJobCmd(a *app) *cobra.Command {
	opts := &config.ItemOptions{Kind: ir.KindJob}

	cmd := &cobra.Command{
		Use:   "job [server-url]",
		Short: "Act on one or more jobs",
		Long: `Applies exactly one action to the job named by --name or to every job
listed in --list-from-file. Folder jobs are addressed as folder/sub/job.

A replace expression starts with its delimiter: '#foo#bar' replaces every
"foo" in config.xml with "bar", '?a#b?c' uses '?' so '#' can appear.`,
		Example: `  jenkinsator job https://ci.example.com --name build-app --disable
  jenkinsator job --server https://ci.example.com --list-from-file jobs.txt --replace '#old-host#new-host' --dry-run
  jenkinsator job https://ci.example.com --list-from-file s3://ops/jobs.txt --dump-to-file backups/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runItems(cmd, args, *opts)
		},
	}

	addTargetFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.Start, "start", false, "Queue a build")
	cmd.Flags().StringVar(&opts.CreatePath, "create-from-file", "", "Create the jobs from this config.xml")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	return cmd
}

func newNodeCmd(a *app) *cobra.Command {
	opts := &config.ItemOptions{Kind: ir.KindNode}

	cmd := &cobra.Command{
		Use:   "node [server-url]",
		Short: "Act on one or more build nodes, or list them",
		Long: `Applies exactly one action to the node named by --name or to every node
listed in --list-from-file. --get-nodes lists nodes instead and takes no targets.`,
		Example: `  jenkinsator node https://ci.example.com --get-nodes offline
  jenkinsator node https://ci.example.com --list-from-file agents.txt --disable`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runItems(cmd, args, *opts)
		},
	}

	addTargetFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.GetNodes, "get-nodes", "", "List nodes: offline, online or all")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	return cmd
}

func addTargetFlags(cmd *cobra.Command, opts *config.ItemOptions) {
	noun := opts.Kind.String()
	cmd.Flags().StringVar(&opts.Name, "name", "", "Name of a single "+noun)
	cmd.Flags().StringVar(&opts.ListFile, "list-from-file", "", "File (or s3://bucket/key) with one "+noun+" name per line")
	cmd.Flags().BoolVar(&opts.Enable, "enable", false, "Enable the "+noun+"s")
	cmd.Flags().BoolVar(&opts.Disable, "disable", false, "Disable the "+noun+"s")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "Delete the "+noun+"s")
	cmd.Flags().StringVar(&opts.DumpPath, "dump-to-file", "", "Write config.xml to this file, or into this directory for several targets")
	cmd.Flags().StringVar(&opts.Replace, "replace", "", "Literal replace expression, e.g. '#foo#bar'")
	cmd.Flags().StringVar(&opts.ReplaceRegex, "replace-regex", "", "Regular expression replace expression, e.g. '#v(\\d+)#v$1-lts'")
}

func (a *app) runItems(cmd *cobra.Command, args []string, opts config.ItemOptions) error {
	cfg, err := a.loadConfig(cmd, args)
	if err != nil {
		return err
	}
	action, err := opts.Action()
	if err != nil {
		return err
	}

	var targets target.Set
	if engine.PerItem(action) {
		targets, err = target.Resolve(cmd.Context(), a.store, opts.Name, opts.ListFile)
		if err != nil {
			return err
		}
	}
	return a.execute(cmd.Context(), cfg, opts.Kind, opts.Kind.String()+"."+action.Name(), action, targets)
}
