package config

import (
	"strings"

	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/transform"
)

// ItemOptions are the targeting and action flags of the job and node commands.
type ItemOptions struct {
	Kind     ir.ResourceKind
	Name     string
	ListFile string

	Enable       bool
	Disable      bool
	Delete       bool
	Start        bool
	DumpPath     string
	CreatePath   string
	Replace      string
	ReplaceRegex string

	// GetNodes lists nodes instead of acting on a target set.
	GetNodes string
}

// Action picks the single requested action. Exactly one per-item action, or
// GetNodes alone for nodes, must be set.
func (o ItemOptions) Action() (engine.Action, error) {
	chosen := o.chosenFlags()

	if o.GetNodes != "" {
		if o.Kind != ir.KindNode {
			return nil, configErrorf("--get-nodes only applies to nodes")
		}
		if len(chosen) > 0 {
			return nil, configErrorf("--get-nodes cannot be combined with %s", strings.Join(chosen, ", "))
		}
		if o.Name != "" || o.ListFile != "" {
			return nil, configErrorf("--get-nodes does not take --name or --list-from-file")
		}
		filter, err := engine.ParseNodeFilter(o.GetNodes)
		if err != nil {
			return nil, configErrorf("--get-nodes: %v", err)
		}
		return engine.ListNodes{Filter: filter}, nil
	}

	switch len(chosen) {
	case 0:
		return nil, configErrorf("no action given for %s: choose one of %s", o.Kind, strings.Join(actionFlags(o.Kind), ", "))
	case 1:
	default:
		return nil, configErrorf("only one action may be given, got %s", strings.Join(chosen, ", "))
	}

	if o.Kind == ir.KindNode {
		if o.CreatePath != "" {
			return nil, configErrorf("creating nodes is not supported")
		}
		if o.Start {
			return nil, configErrorf("nodes cannot be started")
		}
	}

	switch {
	case o.Enable:
		return engine.Enable{}, nil
	case o.Disable:
		return engine.Disable{}, nil
	case o.Delete:
		return engine.Delete{}, nil
	case o.Start:
		return engine.Start{}, nil
	case o.DumpPath != "":
		return engine.Dump{Path: o.DumpPath}, nil
	case o.CreatePath != "":
		return engine.Create{Path: o.CreatePath}, nil
	case o.Replace != "":
		spec, err := transform.ParseSpec(o.Replace)
		if err != nil {
			return nil, configErrorf("--replace: %v", err)
		}
		return engine.Replace{Spec: spec}, nil
	default:
		spec, err := transform.ParseRegexSpec(o.ReplaceRegex)
		if err != nil {
			return nil, configErrorf("--replace-regex: %v", err)
		}
		return engine.Replace{Spec: spec}, nil
	}
}

func (o ItemOptions) chosenFlags() []string {
	var chosen []string
	add := func(set bool, flag string) {
		if set {
			chosen = append(chosen, "--"+flag)
		}
	}
	add(o.Enable, "enable")
	add(o.Disable, "disable")
	add(o.Delete, "delete")
	add(o.Start, "start")
	add(o.DumpPath != "", "dump-to-file")
	add(o.CreatePath != "", "create-from-file")
	add(o.Replace != "", "replace")
	add(o.ReplaceRegex != "", "replace-regex")
	return chosen
}

func actionFlags(kind ir.ResourceKind) []string {
	if kind == ir.KindNode {
		return []string{"--enable", "--disable", "--delete", "--dump-to-file", "--replace", "--replace-regex", "--get-nodes"}
	}
	return []string{"--enable", "--disable", "--delete", "--dump-to-file", "--create-from-file", "--start", "--replace", "--replace-regex"}
}
