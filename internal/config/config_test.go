package config

import (
	"testing"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(map[string]any{"server": "https://ci.example.com"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://ci.example.com", cfg.Server)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, ir.ModeLive, cfg.Mode())
}

func TestLoad_Precedence(t *testing.T) {
	environ := []string{
		"JENKINSATOR_SERVER=https://env.example.com",
		"JENKINSATOR_OUTPUT=json",
		"JENKINSATOR_DRY_RUN=true",
		"JENKINSATOR_TIMEOUT=5s",
		"JENKINSATOR_UNKNOWN=ignored",
		"HOME=/root",
	}

	cfg, err := Load(map[string]any{"output": "yaml"}, environ)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Server)
	assert.Equal(t, "yaml", cfg.Output, "flags override the environment")
	assert.True(t, cfg.DryRun)
	assert.Equal(t, ir.ModeDryRun, cfg.Mode())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]any
	}{
		{"missing server", map[string]any{}},
		{"bad scheme", map[string]any{"server": "ftp://ci"}},
		{"no host", map[string]any{"server": "https://"}},
		{"bad output", map[string]any{"server": "http://ci", "output": "xml"}},
		{"bad log format", map[string]any{"server": "http://ci", "log-format": "logfmt"}},
		{"bad log level", map[string]any{"server": "http://ci", "log-level": "loud"}},
		{"zero timeout", map[string]any{"server": "http://ci", "timeout": time.Duration(0)}},
		{"login without password", map[string]any{"server": "http://ci", "login": "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.flags, nil)
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "got %v", err)
		})
	}
}

func TestLoad_UndecodableEnvironment(t *testing.T) {
	_, err := Load(map[string]any{"server": "http://ci"}, []string{"JENKINSATOR_TIMEOUT=soon"})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "JENKINSATOR_INSECURE_SKIP_VERIFY", EnvName("insecure-skip-verify"))
	assert.Equal(t, "JENKINSATOR_SERVER", EnvName("server"))
}

func TestHasCredentials(t *testing.T) {
	cfg := &Config{Login: "admin", Password: "secret"}
	assert.True(t, cfg.HasCredentials())
	assert.False(t, (&Config{}).HasCredentials())
}

func TestItemOptions_Action(t *testing.T) {
	tests := []struct {
		name    string
		opts    ItemOptions
		want    engine.Action
		wantErr string
	}{
		{
			name: "enable job",
			opts: ItemOptions{Kind: ir.KindJob, Name: "a", Enable: true},
			want: engine.Enable{},
		},
		{
			name: "dump",
			opts: ItemOptions{Kind: ir.KindJob, Name: "a", DumpPath: "out/"},
			want: engine.Dump{Path: "out/"},
		},
		{
			name: "create job",
			opts: ItemOptions{Kind: ir.KindJob, Name: "a", CreatePath: "t.xml"},
			want: engine.Create{Path: "t.xml"},
		},
		{
			name: "get nodes",
			opts: ItemOptions{Kind: ir.KindNode, GetNodes: "offline"},
			want: engine.ListNodes{Filter: engine.FilterOffline},
		},
		{
			name:    "no action",
			opts:    ItemOptions{Kind: ir.KindJob, Name: "a"},
			wantErr: "no action given for job",
		},
		{
			name:    "two actions",
			opts:    ItemOptions{Kind: ir.KindJob, Name: "a", Enable: true, Delete: true},
			wantErr: "only one action may be given, got --enable, --delete",
		},
		{
			name:    "get nodes with action",
			opts:    ItemOptions{Kind: ir.KindNode, GetNodes: "all", Delete: true},
			wantErr: "--get-nodes cannot be combined with --delete",
		},
		{
			name:    "get nodes with name",
			opts:    ItemOptions{Kind: ir.KindNode, GetNodes: "all", Name: "n1"},
			wantErr: "does not take --name",
		},
		{
			name:    "get nodes filter",
			opts:    ItemOptions{Kind: ir.KindNode, GetNodes: "idle"},
			wantErr: "--get-nodes",
		},
		{
			name:    "get nodes on job",
			opts:    ItemOptions{Kind: ir.KindJob, GetNodes: "all"},
			wantErr: "only applies to nodes",
		},
		{
			name:    "create node",
			opts:    ItemOptions{Kind: ir.KindNode, Name: "n1", CreatePath: "n.xml"},
			wantErr: "creating nodes is not supported",
		},
		{
			name:    "start node",
			opts:    ItemOptions{Kind: ir.KindNode, Name: "n1", Start: true},
			wantErr: "nodes cannot be started",
		},
		{
			name:    "bad replace spec",
			opts:    ItemOptions{Kind: ir.KindJob, Name: "a", Replace: "#a#b#c"},
			wantErr: "--replace",
		},
		{
			name:    "bad regex",
			opts:    ItemOptions{Kind: ir.KindJob, Name: "a", ReplaceRegex: "#(#x"},
			wantErr: "--replace-regex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Action()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemOptions_ActionReplace(t *testing.T) {
	got, err := ItemOptions{Kind: ir.KindNode, Name: "n1", Replace: "#foo#bar"}.Action()
	require.NoError(t, err)

	replace, ok := got.(engine.Replace)
	require.True(t, ok)
	assert.Equal(t, '#', replace.Spec.Delimiter)
	assert.Equal(t, "foo", replace.Spec.Original)
	assert.Equal(t, "bar", replace.Spec.Target)
}
