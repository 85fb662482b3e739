// Package target resolves the set of jobs or nodes an invocation acts on.
package target

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrConflictingTargets is returned when both a name and a list file are given.
var ErrConflictingTargets = errors.New("use either --name or --list-from-file, not both")

// ErrNoTarget is returned when neither a name nor a list file is given.
var ErrNoTarget = errors.New("provide a resource name (--name) or a file with names (--list-from-file)")

// Reader loads the list file. storage.Store satisfies it.
type Reader interface {
	ReadFile(ctx context.Context, location string) ([]byte, error)
}

// Set is an unordered collection of unique resource names.
type Set struct {
	items map[string]struct{}
}

func NewSet(names ...string) Set {
	s := Set{items: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s *Set) Add(name string) {
	if s.items == nil {
		s.items = make(map[string]struct{})
	}
	s.items[name] = struct{}{}
}

func (s Set) Contains(name string) bool {
	_, ok := s.items[name]
	return ok
}

func (s Set) Len() int {
	return len(s.items)
}

// Items returns the names sorted, so reports are stable between runs.
func (s Set) Items() []string {
	return slices.Sorted(maps.Keys(s.items))
}

// Resolve builds the target set from exactly one of name or listFile.
// A missing list file is an error, never an empty set.
func Resolve(ctx context.Context, r Reader, name, listFile string) (Set, error) {
	switch {
	case name != "" && listFile != "":
		return Set{}, ErrConflictingTargets
	case name != "":
		return NewSet(name), nil
	case listFile != "":
		data, err := r.ReadFile(ctx, listFile)
		if err != nil {
			return Set{}, fmt.Errorf("failed to read list file: %w", err)
		}
		return Parse(string(data)), nil
	default:
		return Set{}, ErrNoTarget
	}
}

// Parse collects the non-empty trimmed lines of a list file.
func Parse(content string) Set {
	s := NewSet()
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			s.Add(line)
		}
	}
	return s
}

// IsConfigError reports whether err is a targeting misconfiguration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConflictingTargets) || errors.Is(err, ErrNoTarget)
}
