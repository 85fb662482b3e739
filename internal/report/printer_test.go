package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sampleResults = []ir.Result{
	{Kind: "job", Target: "a", Action: "replace", Status: ir.StatusUpdated, Message: "configuration updated"},
	{Kind: "job", Target: "b", Action: "replace", Status: ir.StatusNoChange, Message: `"foo" not found in configuration`},
	{Kind: "job", Target: "c", Action: "replace", Status: ir.StatusNotFound, Message: "job not found"},
}

func TestLine(t *testing.T) {
	tests := []struct {
		name   string
		result ir.Result
		want   string
	}{
		{
			name:   "performed",
			result: ir.Result{Kind: "job", Target: "a", Status: ir.StatusPerformed, Message: "enabled"},
			want:   "job a: enabled",
		},
		{
			name:   "dry-run",
			result: ir.Result{Kind: "node", Target: "n1", Status: ir.StatusPerformed, Message: "would delete", DryRun: true},
			want:   "[dry-run] node n1: would delete",
		},
		{
			name:   "not found",
			result: sampleResults[2],
			want:   "job c: skipped, job not found",
		},
		{
			name:   "no change",
			result: sampleResults[1],
			want:   `job b: no change, "foo" not found in configuration`,
		},
		{
			name:   "no message",
			result: ir.Result{Kind: "script", Target: "x.groovy", Status: ir.StatusPerformed},
			want:   "script x.groovy: performed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.result))
		})
	}
}

func TestPrinter_Text(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "text")

	for _, r := range sampleResults {
		require.NoError(t, p.Result(r))
	}
	require.NoError(t, p.Finish("replace", ir.ModeLive, sampleResults))

	want := "job a: configuration updated\n" +
		"job b: no change, \"foo\" not found in configuration\n" +
		"job c: skipped, job not found\n" +
		"0 performed, 1 updated, 1 unchanged, 1 not found\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_TextListingHasNoSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "text")

	listed := []ir.Result{{Kind: "node", Target: "agent-1", Status: ir.StatusListed, Message: "offline"}}
	require.NoError(t, p.Result(listed[0]))
	require.NoError(t, p.Finish("list-nodes", ir.ModeLive, listed))
	assert.Equal(t, "node agent-1: offline\n", buf.String())
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "json")

	for _, r := range sampleResults {
		require.NoError(t, p.Result(r))
	}
	require.NoError(t, p.Finish("replace", ir.ModeDryRun, sampleResults))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "replace", doc.Action)
	assert.True(t, doc.DryRun)
	if diff := cmp.Diff(sampleResults, doc.Results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ir.Summary{Updated: 1, NoChange: 1, NotFound: 1}, doc.Summary)
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "yaml")

	require.NoError(t, p.Finish("list-plugins", ir.ModeLive, nil))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "list-plugins", doc["action"])
	assert.Equal(t, []any{}, doc["results"])
}
