package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/logging"
)

// Call is one recorded request against a DryRunClient.
type Call struct {
	Method string
	Kind   ir.ResourceKind
	Name   string
}

// DryRunClient stands in for the master when nothing may be changed. Reads
// return fixed placeholder values, writes are recorded and dropped.
type DryRunClient struct {
	mu    sync.Mutex
	calls []Call
}

func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

// Calls returns the recorded requests in order.
func (c *DryRunClient) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

func (c *DryRunClient) record(method string, kind ir.ResourceKind, name string) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Method: method, Kind: kind, Name: name})
	c.mu.Unlock()
	logging.Debug("dry-run request", "method", method, "kind", kind.String(), "name", name)
}

// Placeholder is the document returned for every configuration read.
func Placeholder(kind ir.ResourceKind, name string) string {
	return fmt.Sprintf("<!-- dry-run: configuration of %s %q is not fetched -->\n", kind, name)
}

func (c *DryRunClient) GetConfig(_ context.Context, kind ir.ResourceKind, name string) (string, error) {
	c.record("GetConfig", kind, name)
	return Placeholder(kind, name), nil
}

func (c *DryRunClient) SetConfig(_ context.Context, kind ir.ResourceKind, name, _ string) error {
	c.record("SetConfig", kind, name)
	return nil
}

func (c *DryRunClient) Create(_ context.Context, kind ir.ResourceKind, name, _ string) error {
	c.record("Create", kind, name)
	return nil
}

func (c *DryRunClient) Delete(_ context.Context, kind ir.ResourceKind, name string) error {
	c.record("Delete", kind, name)
	return nil
}

func (c *DryRunClient) Enable(_ context.Context, kind ir.ResourceKind, name string) error {
	c.record("Enable", kind, name)
	return nil
}

func (c *DryRunClient) Disable(_ context.Context, kind ir.ResourceKind, name string) error {
	c.record("Disable", kind, name)
	return nil
}

func (c *DryRunClient) Build(_ context.Context, name string) error {
	c.record("Build", ir.KindJob, name)
	return nil
}

func (c *DryRunClient) ListNodes(_ context.Context) ([]ir.Node, error) {
	c.record("ListNodes", ir.KindNode, "")
	return []ir.Node{}, nil
}

func (c *DryRunClient) ListPlugins(_ context.Context) ([]ir.Plugin, error) {
	c.record("ListPlugins", ir.KindJob, "")
	return []ir.Plugin{}, nil
}

func (c *DryRunClient) RunScript(_ context.Context, _ string) (string, error) {
	c.record("RunScript", ir.KindJob, "")
	return "", nil
}
