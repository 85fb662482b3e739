package engine

import (
	"fmt"
	"strings"

	"github.com/jenkinsator/jenkinsator/internal/transform"
)

// Action is one of the operations the engine can dispatch. The set of
// implementations is closed; Execute switches over all of them.
type Action interface {
	// Name is the short label used in reports and logs.
	Name() string
	isAction()
}

type (
	Enable  struct{}
	Disable struct{}
	Delete  struct{}
	Start   struct{}

	// Dump writes each target's configuration to Path.
	Dump struct{ Path string }

	// Create creates each target from the document stored at Path.
	Create struct{ Path string }

	// Replace rewrites each target's configuration.
	Replace struct{ Spec transform.Spec }

	// ListNodes reports every node matching Filter.
	ListNodes struct{ Filter NodeFilter }

	ListPlugins struct{}

	// RunScript executes the Groovy script stored at Path on the master.
	RunScript struct{ Path string }
)

func (Enable) Name() string      { return "enable" }
func (Disable) Name() string     { return "disable" }
func (Delete) Name() string      { return "delete" }
func (Start) Name() string       { return "start" }
func (Dump) Name() string        { return "dump" }
func (Create) Name() string      { return "create" }
func (Replace) Name() string     { return "replace" }
func (ListNodes) Name() string   { return "list-nodes" }
func (ListPlugins) Name() string { return "list-plugins" }
func (RunScript) Name() string   { return "run-script" }

func (Enable) isAction()      {}
func (Disable) isAction()     {}
func (Delete) isAction()      {}
func (Start) isAction()       {}
func (Dump) isAction()        {}
func (Create) isAction()      {}
func (Replace) isAction()     {}
func (ListNodes) isAction()   {}
func (ListPlugins) isAction() {}
func (RunScript) isAction()   {}

// PerItem reports whether the action iterates a target set.
func PerItem(a Action) bool {
	switch a.(type) {
	case ListNodes, ListPlugins, RunScript:
		return false
	default:
		return true
	}
}

// NodeFilter selects nodes by their offline flag.
type NodeFilter string

const (
	FilterAll     NodeFilter = "all"
	FilterOnline  NodeFilter = "online"
	FilterOffline NodeFilter = "offline"
)

// ParseNodeFilter accepts all, online or offline.
func ParseNodeFilter(s string) (NodeFilter, error) {
	switch f := NodeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterOnline, FilterOffline:
		return f, nil
	default:
		return "", fmt.Errorf("invalid node filter %q: want offline, online or all", s)
	}
}
