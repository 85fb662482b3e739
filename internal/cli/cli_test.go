package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/config"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/remote"
	"github.com/jenkinsator/jenkinsator/internal/report"
	"github.com/jenkinsator/jenkinsator/internal/storage"
	"github.com/jenkinsator/jenkinsator/internal/target"
	"github.com/jenkinsator/jenkinsator/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const server = "https://ci.example.com"

type testApp struct {
	*app
	out       *bytes.Buffer
	client    *remote.DryRunClient
	connected int
}

func newTestApp(t *testing.T, env ...string) *testApp {
	t.Helper()
	ta := &testApp{out: &bytes.Buffer{}, client: remote.NewDryRunClient()}
	ta.app = &app{
		stdout:  ta.out,
		stderr:  &bytes.Buffer{},
		environ: func() []string { return env },
		store:   storage.NewStore(),
		connect: func(context.Context, *config.Config) (remote.Client, error) {
			ta.connected++
			return ta.client, nil
		},
		now: time.Now,
	}
	return ta
}

func (ta *testApp) run(args ...string) error {
	cmd := newRootCmd(ta.app)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func methods(calls []remote.Call) []string {
	var out []string
	for _, c := range calls {
		out = append(out, c.Method+" "+c.Name)
	}
	return out
}

func TestJob_DryRunDoesNotConnect(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("job", server, "--name", "job1", "--enable", "--dry-run")
	require.NoError(t, err)

	assert.Equal(t, 0, ta.connected)
	assert.Equal(t, "[dry-run] job job1: would enable\n[dry-run] 1 performed, 0 updated, 0 unchanged, 0 not found\n", ta.out.String())
}

func TestJob_LiveEnable(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("job", "--server", server, "--name", "job1", "--enable")
	require.NoError(t, err)

	assert.Equal(t, 1, ta.connected)
	assert.Equal(t, []string{"Enable job1"}, methods(ta.client.Calls()))
	assert.Contains(t, ta.out.String(), "job job1: enabled\n")
}

func TestJob_ListFile(t *testing.T) {
	ta := newTestApp(t)
	list := filepath.Join(t.TempDir(), "jobs.txt")
	require.NoError(t, os.WriteFile(list, []byte("b\na\n\n  b  \n"), 0o644))

	err := ta.run("job", server, "--list-from-file", list, "--delete")
	require.NoError(t, err)
	assert.Equal(t, []string{"Delete a", "Delete b"}, methods(ta.client.Calls()))
}

func TestJob_DumpToDirectory(t *testing.T) {
	ta := newTestApp(t)
	dir := t.TempDir()

	err := ta.run("job", server, "--name", "folder/job1", "--dump-to-file", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "folder", "job1.xml"))
	require.NoError(t, err)
	assert.Equal(t, remote.Placeholder(ir.KindJob, "folder/job1"), string(data))
}

func TestJob_ServerFromEnvironment(t *testing.T) {
	ta := newTestApp(t, "JENKINSATOR_SERVER="+server, "JENKINSATOR_OUTPUT=json")

	err := ta.run("job", "--name", "job1", "--start")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(ta.out.Bytes(), &doc))
	assert.Equal(t, "start", doc.Action)
	require.Len(t, doc.Results, 1)
	assert.Equal(t, ir.StatusPerformed, doc.Results[0].Status)
	assert.Equal(t, []string{"Build job1"}, methods(ta.client.Calls()))
}

func TestJob_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{"no action", []string{"job", server, "--name", "a"}, config.IsConfigError},
		{"two actions", []string{"job", server, "--name", "a", "--delete", "--start"}, config.IsConfigError},
		{"bad replace", []string{"job", server, "--name", "a", "--replace", "#a"}, config.IsConfigError},
		{"no target", []string{"job", server, "--enable"}, target.IsConfigError},
		{"both targets", []string{"job", server, "--name", "a", "--list-from-file", "x", "--enable"}, target.IsConfigError},
		{"no server", []string{"job", "--name", "a", "--enable"}, config.IsConfigError},
		{"server twice", []string{"job", "https://a", "--server", "https://b", "--name", "a", "--enable"}, config.IsConfigError},
		{"node two actions", []string{"node", server, "--name", "n", "--replace", "#a#b", "--delete"}, config.IsConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)
			err := ta.run(tt.args...)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
			assert.Equal(t, 0, ta.connected)
			assert.Empty(t, ta.client.Calls())
		})
	}
}

func TestJob_EnableDisableExclusive(t *testing.T) {
	ta := newTestApp(t)
	err := ta.run("job", server, "--name", "a", "--enable", "--disable")
	require.Error(t, err)
	assert.Empty(t, ta.client.Calls())
}

func TestJob_MissingListFileIsFatal(t *testing.T) {
	ta := newTestApp(t)
	err := ta.run("job", server, "--list-from-file", filepath.Join(t.TempDir(), "missing.txt"), "--enable")
	require.Error(t, err)
	assert.Equal(t, 0, ta.connected)
}

func TestNode_GetNodes(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("node", server, "--get-nodes", "all", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, ta.out.String(), "action: list-nodes")
	assert.Equal(t, []string{"ListNodes "}, methods(ta.client.Calls()))
}

func TestNode_ReplaceDryRun(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("node", server, "--name", "agent-1", "--replace", "#dry-run#live", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, 0, ta.connected)
	assert.Contains(t, ta.out.String(), "[dry-run] node agent-1: would update configuration\n")
}

func TestPlugin_RequiresListAll(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("plugin", server)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))

	require.NoError(t, ta.run("plugin", server, "--list-all"))
	assert.Equal(t, []string{"ListPlugins "}, methods(ta.client.Calls()))
}

func TestScript_Execute(t *testing.T) {
	ta := newTestApp(t)
	script := filepath.Join(t.TempDir(), "hello.groovy")
	require.NoError(t, os.WriteFile(script, []byte("println 'hi'"), 0o644))

	require.NoError(t, ta.run("script", server, "--execute-from-file", script))
	assert.Equal(t, []string{"RunScript "}, methods(ta.client.Calls()))

	err := ta.run("script", server)
	assert.True(t, config.IsConfigError(err))
}

func TestAuditLogAndMetrics(t *testing.T) {
	ta := newTestApp(t)
	dir := t.TempDir()
	audit := filepath.Join(dir, "audit.log")
	metrics := filepath.Join(dir, "jenkinsator.prom")

	err := ta.run("job", server, "--name", "job1", "--disable", "--audit-log", audit, "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(audit)
	require.NoError(t, err)
	var entry report.AuditEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "job.disable", entry.Operation)
	assert.Equal(t, server, entry.Server)
	assert.Equal(t, 1, entry.Summary.Performed)
	assert.NotEmpty(t, entry.InvocationID)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "jenkinsator_results_total")
}

func TestConnectFailure(t *testing.T) {
	ta := newTestApp(t)
	ta.connect = func(context.Context, *config.Config) (remote.Client, error) {
		return nil, errors.New("connection refused")
	}
	audit := filepath.Join(t.TempDir(), "audit.log")

	err := ta.run("job", server, "--name", "job1", "--enable", "--audit-log", audit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, ta.out.String())

	data, err := os.ReadFile(audit)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"error":"connection refused"`))
}

func TestVersion(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, ta.run("version"))
	assert.True(t, strings.HasPrefix(ta.out.String(), "jenkinsator version dev ("))
}

// Replace expressions shown in help text must be accepted by the parser they
// advertise.
func TestHelpReplaceExpressionsParse(t *testing.T) {
	literal := regexp.MustCompile(`--replace '([^']*)'`)
	pattern := regexp.MustCompile(`--replace-regex '([^']*)'`)
	usage := regexp.MustCompile(`e\.g\. '([^']*)'`)

	seen := 0
	for _, cmd := range newRootCmd(newTestApp(t).app).Commands() {
		for _, m := range literal.FindAllStringSubmatch(cmd.Example, -1) {
			_, err := transform.ParseSpec(m[1])
			assert.NoError(t, err, "%s example %q", cmd.Name(), m[1])
			seen++
		}
		for _, m := range pattern.FindAllStringSubmatch(cmd.Example, -1) {
			_, err := transform.ParseRegexSpec(m[1])
			assert.NoError(t, err, "%s example %q", cmd.Name(), m[1])
			seen++
		}
		for name, parse := range map[string]func(string) (transform.Spec, error){
			"replace":       transform.ParseSpec,
			"replace-regex": transform.ParseRegexSpec,
		} {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			for _, m := range usage.FindAllStringSubmatch(f.Usage, -1) {
				_, err := parse(m[1])
				assert.NoError(t, err, "%s --%s usage %q", cmd.Name(), name, m[1])
				seen++
			}
		}
	}
	assert.Positive(t, seen)
}
