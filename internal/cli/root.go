package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/config"
	"github.com/jenkinsator/jenkinsator/internal/credentials"
	"github.com/jenkinsator/jenkinsator/internal/jenkins"
	"github.com/jenkinsator/jenkinsator/internal/logging"
	"github.com/jenkinsator/jenkinsator/internal/remote"
	"github.com/jenkinsator/jenkinsator/internal/storage"
	"github.com/spf13/cobra"
)

// app carries what the commands share. Tests swap the fields.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	environ func() []string
	store   *storage.Store
	connect func(ctx context.Context, cfg *config.Config) (remote.Client, error)
	now     func() time.Time
}

func newApp() *app {
	return &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		environ: os.Environ,
		store:   storage.NewStore(),
		connect: connectLive,
		now:     time.Now,
	}
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by the caller.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd(newApp()).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "jenkinsator",
		Short: "Bulk-manage Jenkins jobs, nodes, plugins and scripts",
		Long: `Jenkinsator applies one action to many Jenkins jobs or build nodes at once.

Targets come from --name or from a file with one name per line:
  • enable, disable, delete or start jobs
  • dump configurations to files or create jobs from one
  • find and replace inside config.xml, literally or by regular expression
  • list nodes and plugins, run Groovy scripts on the master

Every global flag can also be set as JENKINSATOR_<FLAG>, e.g. JENKINSATOR_DRY_RUN=true.
Credentials default to the netrc entry for the server host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	f := root.PersistentFlags()
	f.String("server", "", "Jenkins server URL (or pass it as the first argument)")
	f.String("login", "", "Jenkins user; read from netrc when omitted")
	f.String("password", "", "Jenkins password or API token")
	f.Bool("dry-run", false, "Report what would change without contacting the server")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "text", "Log format: text or json")
	f.StringP("output", "o", "text", "Result format: text, json or yaml")
	f.String("audit-log", "", "Append a JSON line per invocation to this file")
	f.String("metrics-file", "", "Write Prometheus metrics in textfile format to this path")
	f.Duration("timeout", jenkins.DefaultTimeout, "Per-request HTTP timeout")
	f.Bool("insecure-skip-verify", false, "Skip TLS certificate verification")
	f.Bool("continue-on-error", false, "Keep processing targets after a failure")

	root.AddCommand(
		newJobCmd(a),
		newNodeCmd(a),
		newPluginCmd(a),
		newScriptCmd(a),
		newVersionCmd(a),
	)
	return root
}

// loadConfig merges explicitly set flags, the positional server URL and the
// environment, then initializes logging.
func (a *app) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := map[string]any{}
	for key := range config.Defaults() {
		if cmd.Flags().Changed(key) {
			flags[key] = cmd.Flags().Lookup(key).Value.String()
		}
	}
	if len(args) == 1 {
		if s, ok := flags["server"]; ok && s != args[0] {
			return nil, &config.ConfigError{Msg: fmt.Sprintf("server given twice: %q and %q", s, args[0])}
		}
		flags["server"] = args[0]
	}

	cfg, err := config.Load(flags, a.environ())
	if err != nil {
		return nil, err
	}
	logging.InitWithWriter(a.stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// client returns the stand-in in dry-run, otherwise a connected live client.
func (a *app) client(ctx context.Context, cfg *config.Config) (remote.Client, error) {
	if cfg.DryRun {
		logging.Debug("dry-run: not connecting", "server", cfg.Server)
		return remote.NewDryRunClient(), nil
	}
	return a.connect(ctx, cfg)
}

func connectLive(ctx context.Context, cfg *config.Config) (remote.Client, error) {
	login, password := cfg.Login, cfg.Password
	if !cfg.HasCredentials() {
		path, err := credentials.DefaultPath()
		if err != nil {
			return nil, err
		}
		creds, err := credentials.Lookup(path, cfg.Server)
		if err != nil {
			return nil, err
		}
		login, password = creds.Login, creds.Password
	}

	client, err := jenkins.New(jenkins.Options{
		URL:                cfg.Server,
		Login:              login,
		Password:           password,
		Timeout:            cfg.Timeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
