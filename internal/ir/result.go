package ir

// Mode is fixed for the lifetime of one invocation.
type Mode int

const (
	ModeLive Mode = iota
	ModeDryRun
)

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "live"
}

// Status is the outcome of applying one action to one target.
type Status string

const (
	StatusPerformed Status = "performed"
	StatusUpdated   Status = "updated"
	StatusNoChange  Status = "no-change"
	StatusNotFound  Status = "skipped-not-found"
	StatusListed    Status = "listed" // whole-collection actions
)

// Result is the reported outcome for a single target.
type Result struct {
	Kind    string `json:"kind" yaml:"kind"`
	Target  string `json:"target" yaml:"target"`
	Action  string `json:"action" yaml:"action"`
	Status  Status `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	DryRun  bool   `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
}

// Summary counts results by status.
type Summary struct {
	Performed int `json:"performed" yaml:"performed"`
	Updated   int `json:"updated" yaml:"updated"`
	NoChange  int `json:"noChange" yaml:"noChange"`
	NotFound  int `json:"notFound" yaml:"notFound"`
	Listed    int `json:"listed" yaml:"listed"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusPerformed:
			s.Performed++
		case StatusUpdated:
			s.Updated++
		case StatusNoChange:
			s.NoChange++
		case StatusNotFound:
			s.NotFound++
		case StatusListed:
			s.Listed++
		}
	}
	return s
}
