package cli

import (
	"context"
	"fmt"

	"github.com/jenkinsator/jenkinsator/internal/config"
	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/logging"
	"github.com/jenkinsator/jenkinsator/internal/report"
	"github.com/jenkinsator/jenkinsator/internal/target"
)

// execute connects, runs action over targets and reports the outcome to
// stdout, the audit log and the metrics file.
func (a *app) execute(ctx context.Context, cfg *config.Config, kind ir.ResourceKind, operation string, action engine.Action, targets target.Set) error {
	invocation := report.NewInvocationID()
	logging.Debug("starting", "invocation", invocation, "operation", operation, "mode", cfg.Mode().String())

	client, err := a.client(ctx, cfg)
	if err != nil {
		a.persist(cfg, invocation, operation, nil, err, nil)
		return err
	}

	eng := engine.NewEngine(client, a.store, cfg.Mode())
	eng.ContinueOnError = cfg.ContinueOnError

	metrics := report.NewMetrics()
	start := a.now()
	results, runErr := eng.ExecuteWithCallback(ctx, action, kind, targets, func(event engine.Event) {
		metrics.ObserveEvent(event)
		if event.Status == "failed" {
			logging.Error("item failed", "target", event.Target, "action", event.Action, "error", event.Error)
		}
	})
	metrics.Observe(results, cfg.Mode())
	metrics.Finish(action.Name(), a.now().Sub(start), a.now())

	printer := report.NewPrinter(a.stdout, cfg.Output)
	for _, r := range results {
		if err := printer.Result(r); err != nil {
			return fmt.Errorf("failed to print result: %w", err)
		}
	}
	if err := printer.Finish(action.Name(), cfg.Mode(), results); err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}

	a.persist(cfg, invocation, operation, results, runErr, metrics)
	return runErr
}

// persist writes the opt-in audit log and metrics file. Failures are logged
// and never change the exit status.
func (a *app) persist(cfg *config.Config, invocation, operation string, results []ir.Result, runErr error, metrics *report.Metrics) {
	if cfg.AuditLog != "" {
		entry := report.NewAuditEntry(invocation, operation, cfg.Server, cfg.Mode(), results, runErr)
		if err := report.WriteAuditLog(cfg.AuditLog, entry); err != nil {
			logging.Warn("failed to write audit log", "path", cfg.AuditLog, "error", err)
		}
	}
	if cfg.MetricsFile != "" && metrics != nil {
		if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
			logging.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
}
