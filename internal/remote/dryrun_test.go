package remote

import (
	"context"
	"testing"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunClient_RecordsWrites(t *testing.T) {
	ctx := context.Background()
	c := NewDryRunClient()

	require.NoError(t, c.Enable(ctx, ir.KindJob, "job1"))
	require.NoError(t, c.Delete(ctx, ir.KindNode, "agent-1"))
	require.NoError(t, c.SetConfig(ctx, ir.KindJob, "job1", "<project/>"))
	require.NoError(t, c.Build(ctx, "job1"))

	assert.Equal(t, []Call{
		{Method: "Enable", Kind: ir.KindJob, Name: "job1"},
		{Method: "Delete", Kind: ir.KindNode, Name: "agent-1"},
		{Method: "SetConfig", Kind: ir.KindJob, Name: "job1"},
		{Method: "Build", Kind: ir.KindJob, Name: "job1"},
	}, c.Calls())
}

func TestDryRunClient_BenignReads(t *testing.T) {
	ctx := context.Background()
	c := NewDryRunClient()

	doc, err := c.GetConfig(ctx, ir.KindJob, "job1")
	require.NoError(t, err)
	assert.Equal(t, Placeholder(ir.KindJob, "job1"), doc)

	nodes, err := c.ListNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	plugins, err := c.ListPlugins(ctx)
	require.NoError(t, err)
	assert.Empty(t, plugins)

	out, err := c.RunScript(ctx, "println 'hi'")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDryRunClient_SatisfiesClient(t *testing.T) {
	var _ Client = NewDryRunClient()
}
