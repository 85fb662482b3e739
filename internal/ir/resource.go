package ir

import "fmt"

// ResourceKind selects which Jenkins collection an action targets.
type ResourceKind int

const (
	KindJob ResourceKind = iota
	KindNode
)

func (k ResourceKind) String() string {
	switch k {
	case KindJob:
		return "job"
	case KindNode:
		return "node"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a build agent as reported by the master.
type Node struct {
	Name    string `json:"name" yaml:"name"`
	Offline bool   `json:"offline" yaml:"offline"`
}

// Plugin is an installed plugin entry from the plugin manager.
type Plugin struct {
	ShortName string `json:"shortName" yaml:"shortName"`
	LongName  string `json:"longName" yaml:"longName"`
	Version   string `json:"version" yaml:"version"`
	Active    bool   `json:"active" yaml:"active"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
}
