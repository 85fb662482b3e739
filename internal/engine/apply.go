package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/logging"
	"github.com/jenkinsator/jenkinsator/internal/remote"
	"github.com/jenkinsator/jenkinsator/internal/storage"
	"github.com/jenkinsator/jenkinsator/internal/target"
	"github.com/jenkinsator/jenkinsator/internal/transform"
)

// FileStore reads source documents and writes dumps.
type FileStore interface {
	ReadFile(ctx context.Context, location string) ([]byte, error)
	WriteFile(ctx context.Context, location string, data []byte) error
}

// Engine applies actions to jobs and nodes one target at a time.
type Engine struct {
	remote remote.Client
	store  FileStore
	mode   ir.Mode

	// ContinueOnError keeps processing after a fatal item error and returns
	// all of them joined at the end.
	ContinueOnError bool
}

func NewEngine(client remote.Client, store FileStore, mode ir.Mode) *Engine {
	return &Engine{
		remote: client,
		store:  store,
		mode:   mode,
	}
}

// Event is emitted around every processed target.
type Event struct {
	Target   string
	Action   string
	Status   string // "started", "completed", "failed"
	Duration time.Duration
	Error    error
}

// Callback receives progress events if set.
type Callback func(event Event)

// Execute runs action against targets and returns one result per target.
// Whole-collection actions ignore targets.
func (e *Engine) Execute(ctx context.Context, action Action, kind ir.ResourceKind, targets target.Set) ([]ir.Result, error) {
	return e.ExecuteWithCallback(ctx, action, kind, targets, nil)
}

// ExecuteWithCallback is Execute with progress events. On a fatal error the
// results gathered so far are returned along with it.
func (e *Engine) ExecuteWithCallback(ctx context.Context, action Action, kind ir.ResourceKind, targets target.Set, callback Callback) ([]ir.Result, error) {
	emit := func(event Event) {
		if callback != nil {
			callback(event)
		}
	}

	if !PerItem(action) {
		start := time.Now()
		emit(Event{Action: action.Name(), Status: "started"})
		results, err := e.executeCollection(ctx, action)
		if err != nil {
			emit(Event{Action: action.Name(), Status: "failed", Duration: time.Since(start), Error: err})
			return results, err
		}
		emit(Event{Action: action.Name(), Status: "completed", Duration: time.Since(start)})
		return results, nil
	}

	plan, err := e.prepare(ctx, action, targets)
	if err != nil {
		return nil, err
	}

	logging.Debug("executing action", "action", action.Name(), "kind", kind.String(), "targets", targets.Len(), "mode", e.mode.String())

	var results []ir.Result
	var errs []error
	for _, name := range targets.Items() {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("execution cancelled: %w", err)
		}
		start := time.Now()
		emit(Event{Target: name, Action: action.Name(), Status: "started"})

		res, err := e.applyItem(ctx, action, kind, name, plan)
		if err != nil {
			emit(Event{Target: name, Action: action.Name(), Status: "failed", Duration: time.Since(start), Error: err})
			if !e.ContinueOnError {
				return results, err
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
		emit(Event{Target: name, Action: action.Name(), Status: "completed", Duration: time.Since(start)})
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("%d item(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return results, nil
}

// itemPlan carries inputs shared by every target of one invocation.
type itemPlan struct {
	document string // Create source
	dumpDir  bool
}

func (e *Engine) prepare(ctx context.Context, action Action, targets target.Set) (itemPlan, error) {
	var plan itemPlan
	switch a := action.(type) {
	case Create:
		data, err := e.store.ReadFile(ctx, a.Path)
		if err != nil {
			return plan, fmt.Errorf("failed to read configuration file: %w", err)
		}
		plan.document = string(data)
	case Dump:
		plan.dumpDir = targets.Len() > 1 || storage.IsDir(a.Path)
		if plan.dumpDir {
			for _, name := range targets.Items() {
				if _, err := DumpFileName(name); err != nil {
					return plan, err
				}
			}
		}
	}
	return plan, nil
}

func (e *Engine) applyItem(ctx context.Context, action Action, kind ir.ResourceKind, name string, plan itemPlan) (ir.Result, error) {
	switch a := action.(type) {
	case Enable:
		return e.mutate(ctx, a, kind, name, e.remote.Enable)
	case Disable:
		return e.mutate(ctx, a, kind, name, e.remote.Disable)
	case Delete:
		return e.mutate(ctx, a, kind, name, e.remote.Delete)
	case Start:
		if kind != ir.KindJob {
			return ir.Result{}, fmt.Errorf("cannot start a %s", kind)
		}
		return e.mutate(ctx, a, kind, name, func(ctx context.Context, _ ir.ResourceKind, name string) error {
			return e.remote.Build(ctx, name)
		})
	case Create:
		return e.mutate(ctx, a, kind, name, func(ctx context.Context, kind ir.ResourceKind, name string) error {
			return e.remote.Create(ctx, kind, name, plan.document)
		})
	case Dump:
		return e.dump(ctx, a, kind, name, plan.dumpDir)
	case Replace:
		return e.replace(ctx, a, kind, name)
	case ListNodes, ListPlugins, RunScript:
		return ir.Result{}, fmt.Errorf("%s does not act on individual items", action.Name())
	default:
		return ir.Result{}, fmt.Errorf("unknown action %T", action)
	}
}

type remoteCall func(ctx context.Context, kind ir.ResourceKind, name string) error

// mutate performs call in live mode only; the result is reported either way.
func (e *Engine) mutate(ctx context.Context, action Action, kind ir.ResourceKind, name string, call remoteCall) (ir.Result, error) {
	if e.mode == ir.ModeLive {
		if err := call(ctx, kind, name); err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				return e.notFound(action, kind, name), nil
			}
			return ir.Result{}, fmt.Errorf("%s %s %q: %w", action.Name(), kind, name, err)
		}
	}
	return e.result(action, kind, name, ir.StatusPerformed, describe(action, e.mode)), nil
}

func (e *Engine) dump(ctx context.Context, action Dump, kind ir.ResourceKind, name string, dir bool) (ir.Result, error) {
	doc, err := e.remote.GetConfig(ctx, kind, name)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return e.notFound(action, kind, name), nil
		}
		return ir.Result{}, fmt.Errorf("dump %s %q: %w", kind, name, err)
	}

	dest := action.Path
	if dir {
		file, err := DumpFileName(name)
		if err != nil {
			return ir.Result{}, err
		}
		dest = storage.Join(action.Path, file)
	}
	if e.mode == ir.ModeLive {
		if err := e.store.WriteFile(ctx, dest, []byte(doc)); err != nil {
			return ir.Result{}, fmt.Errorf("dump %s %q: %w", kind, name, err)
		}
	}
	return e.result(action, kind, name, ir.StatusPerformed, describe(action, e.mode)+" "+dest), nil
}

func (e *Engine) replace(ctx context.Context, action Replace, kind ir.ResourceKind, name string) (ir.Result, error) {
	doc, err := e.remote.GetConfig(ctx, kind, name)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return e.notFound(action, kind, name), nil
		}
		return ir.Result{}, fmt.Errorf("replace in %s %q: %w", kind, name, err)
	}

	updated, err := transform.Apply(action.Spec, doc)
	if err != nil {
		return ir.Result{}, fmt.Errorf("replace in %s %q: %w", kind, name, err)
	}
	if !transform.Changed(doc, updated) {
		return e.result(action, kind, name, ir.StatusNoChange, fmt.Sprintf("%q not found in configuration", action.Spec.Original)), nil
	}

	if e.mode == ir.ModeLive {
		if err := e.remote.SetConfig(ctx, kind, name, updated); err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				return e.notFound(action, kind, name), nil
			}
			return ir.Result{}, fmt.Errorf("replace in %s %q: %w", kind, name, err)
		}
	}
	return e.result(action, kind, name, ir.StatusUpdated, describe(action, e.mode)), nil
}

func (e *Engine) executeCollection(ctx context.Context, action Action) ([]ir.Result, error) {
	switch a := action.(type) {
	case ListNodes:
		nodes, err := e.remote.ListNodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list nodes: %w", err)
		}
		var results []ir.Result
		for _, n := range FilterNodes(nodes, a.Filter) {
			state := "online"
			if n.Offline {
				state = "offline"
			}
			results = append(results, e.result(a, ir.KindNode, n.Name, ir.StatusListed, state))
		}
		return results, nil

	case ListPlugins:
		plugins, err := e.remote.ListPlugins(ctx)
		if err != nil {
			return nil, fmt.Errorf("list plugins: %w", err)
		}
		var results []ir.Result
		for _, p := range SortPlugins(plugins) {
			r := e.result(a, ir.KindJob, p.ShortName, ir.StatusListed, fmt.Sprintf("%s (%s)", p.LongName, p.Version))
			r.Kind = "plugin"
			results = append(results, r)
		}
		return results, nil

	case RunScript:
		data, err := e.store.ReadFile(ctx, a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		msg := fmt.Sprintf("would run script (%d bytes)", len(data))
		if e.mode == ir.ModeLive {
			out, err := e.remote.RunScript(ctx, string(data))
			if err != nil {
				return nil, fmt.Errorf("run script %s: %w", a.Path, err)
			}
			msg = strings.TrimRight(out, "\n")
		}
		r := e.result(a, ir.KindJob, a.Path, ir.StatusPerformed, msg)
		r.Kind = "script"
		return []ir.Result{r}, nil

	case Enable, Disable, Delete, Start, Dump, Create, Replace:
		return nil, fmt.Errorf("%s needs a target set", action.Name())
	default:
		return nil, fmt.Errorf("unknown action %T", action)
	}
}

func (e *Engine) result(action Action, kind ir.ResourceKind, name string, status ir.Status, msg string) ir.Result {
	return ir.Result{
		Kind:    kind.String(),
		Target:  name,
		Action:  action.Name(),
		Status:  status,
		Message: msg,
		DryRun:  e.mode == ir.ModeDryRun,
	}
}

func (e *Engine) notFound(action Action, kind ir.ResourceKind, name string) ir.Result {
	logging.Warn("skipping missing item", "kind", kind.String(), "name", name, "action", action.Name())
	return e.result(action, kind, name, ir.StatusNotFound, fmt.Sprintf("%s not found", kind))
}

// FilterNodes keeps the nodes selected by filter, preserving order.
func FilterNodes(nodes []ir.Node, filter NodeFilter) []ir.Node {
	if filter == FilterAll || filter == "" {
		return nodes
	}
	wantOffline := filter == FilterOffline
	var out []ir.Node
	for _, n := range nodes {
		if n.Offline == wantOffline {
			out = append(out, n)
		}
	}
	return out
}

// SortPlugins orders plugins by display name, then by short name.
func SortPlugins(plugins []ir.Plugin) []ir.Plugin {
	sorted := slices.Clone(plugins)
	slices.SortFunc(sorted, func(a, b ir.Plugin) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.LongName), strings.ToLower(b.LongName)),
			cmp.Compare(a.ShortName, b.ShortName),
		)
	})
	return sorted
}

// DumpFileName is the slash-separated path, relative to the dump directory,
// that holds a target's configuration. Folders become subdirectories so
// distinct names never share a file.
func DumpFileName(name string) (string, error) {
	segments := strings.Split(strings.Trim(name, "/"), "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("cannot dump %q: invalid path segment %q", name, seg)
		}
	}
	return strings.Join(segments, "/") + ".xml", nil
}

func describe(action Action, mode ir.Mode) string {
	var done, would string
	switch action.(type) {
	case Enable:
		done, would = "enabled", "would enable"
	case Disable:
		done, would = "disabled", "would disable"
	case Delete:
		done, would = "deleted", "would delete"
	case Start:
		done, would = "build queued", "would queue a build"
	case Create:
		done, would = "created", "would create"
	case Dump:
		done, would = "configuration written to", "would write configuration to"
	case Replace:
		done, would = "configuration updated", "would update configuration"
	default:
		done, would = action.Name(), "would "+action.Name()
	}
	if mode == ir.ModeDryRun {
		return would
	}
	return done
}
