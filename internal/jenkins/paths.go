package jenkins

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/remote"
)

// jobPath maps "folder/sub/job" to "/job/folder/job/sub/job/job".
func jobPath(name string) (string, error) {
	segments := jobSegments(name)
	if len(segments) == 0 {
		return "", fmt.Errorf("invalid job name %q", name)
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteString("/job/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String(), nil
}

// splitJobName returns the parent folder path ("" for top level) and the
// leaf name used by createItem.
func splitJobName(name string) (string, string, error) {
	segments := jobSegments(name)
	if len(segments) == 0 {
		return "", "", fmt.Errorf("invalid job name %q", name)
	}
	leaf := segments[len(segments)-1]
	if len(segments) == 1 {
		return "", leaf, nil
	}
	parent, err := jobPath(strings.Join(segments[:len(segments)-1], "/"))
	if err != nil {
		return "", "", err
	}
	return parent, leaf, nil
}

func jobSegments(name string) []string {
	var out []string
	for _, s := range strings.Split(name, "/") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nodePath(name string) string {
	return "/computer/" + url.PathEscape(name)
}

func itemPath(kind ir.ResourceKind, name string) (string, error) {
	switch kind {
	case ir.KindJob:
		return jobPath(name)
	case ir.KindNode:
		if strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("invalid node name %q", name)
		}
		return nodePath(name), nil
	default:
		return "", fmt.Errorf("unsupported resource kind %s", kind)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, remote.ErrNotFound)
}
