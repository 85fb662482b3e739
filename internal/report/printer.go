// Package report renders results for humans and machines and persists the
// optional audit log and metrics textfile.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"gopkg.in/yaml.v3"
)

// Format selects how results are rendered on stdout.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the structured form written in json and yaml output.
type Document struct {
	Action  string      `json:"action" yaml:"action"`
	DryRun  bool        `json:"dryRun" yaml:"dryRun"`
	Results []ir.Result `json:"results" yaml:"results"`
	Summary ir.Summary  `json:"summary" yaml:"summary"`
}

// Printer writes one line per result in text mode as results arrive, and a
// single document at Finish otherwise.
type Printer struct {
	format Format
	w      io.Writer
}

func NewPrinter(w io.Writer, format string) *Printer {
	return &Printer{format: Format(format), w: w}
}

// Result prints r immediately in text mode and is a no-op otherwise.
func (p *Printer) Result(r ir.Result) error {
	if p.format != FormatText && p.format != "" {
		return nil
	}
	_, err := fmt.Fprintln(p.w, Line(r))
	return err
}

// Finish writes the structured document, or the summary line in text mode.
func (p *Printer) Finish(action string, mode ir.Mode, results []ir.Result) error {
	doc := Document{
		Action:  action,
		DryRun:  mode == ir.ModeDryRun,
		Results: results,
		Summary: ir.Summarize(results),
	}
	if doc.Results == nil {
		doc.Results = []ir.Result{}
	}

	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		if doc.Summary.Listed == len(results) {
			return nil
		}
		_, err := fmt.Fprintln(p.w, SummaryLine(doc.Summary, mode))
		return err
	}
}

// Line is the text rendering of one result.
func Line(r ir.Result) string {
	prefix := ""
	if r.DryRun {
		prefix = "[dry-run] "
	}

	text := r.Message
	switch r.Status {
	case ir.StatusNotFound:
		text = "skipped, " + r.Message
	case ir.StatusNoChange:
		text = "no change, " + r.Message
	}
	if text == "" {
		text = string(r.Status)
	}
	return fmt.Sprintf("%s%s %s: %s", prefix, r.Kind, r.Target, text)
}

// SummaryLine totals a batch.
func SummaryLine(s ir.Summary, mode ir.Mode) string {
	prefix := ""
	if mode == ir.ModeDryRun {
		prefix = "[dry-run] "
	}
	return fmt.Sprintf("%s%d performed, %d updated, %d unchanged, %d not found",
		prefix, s.Performed, s.Updated, s.NoChange, s.NotFound)
}
