// Package remote defines the surface the dispatcher uses to talk to the
// automation master.
package remote

import (
	"context"
	"errors"

	"github.com/jenkinsator/jenkinsator/internal/ir"
)

// ErrNotFound signals that the named job or node does not exist.
var ErrNotFound = errors.New("not found")

// Client is implemented by the live Jenkins client and by DryRunClient.
type Client interface {
	GetConfig(ctx context.Context, kind ir.ResourceKind, name string) (string, error)
	SetConfig(ctx context.Context, kind ir.ResourceKind, name, document string) error
	Create(ctx context.Context, kind ir.ResourceKind, name, document string) error
	Delete(ctx context.Context, kind ir.ResourceKind, name string) error
	Enable(ctx context.Context, kind ir.ResourceKind, name string) error
	Disable(ctx context.Context, kind ir.ResourceKind, name string) error
	Build(ctx context.Context, name string) error
	ListNodes(ctx context.Context) ([]ir.Node, error)
	ListPlugins(ctx context.Context) ([]ir.Plugin, error)
	RunScript(ctx context.Context, script string) (string, error)
}
