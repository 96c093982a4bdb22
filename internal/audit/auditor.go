// Package audit implements flowguard's scheduled re-verification job: it
// periodically re-runs the loop checker across every stored model set so a
// model set that was safe when committed, but has since drifted out from
// under a concurrently-edited collaborator's change, is still caught.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meridianiam/flowguard/internal/config"
	"github.com/meridianiam/flowguard/internal/loopcheck"
	"github.com/meridianiam/flowguard/internal/store"
)

// Report summarizes one run of the auditor.
type Report struct {
	Checked int
	Issues  []Issue
}

// Issue describes a single model set that failed the loop check on re-audit.
type Issue struct {
	ModelSetID string
	Message    string
}

// Auditor re-checks every stored model set and reports which ones now admit
// an unbounded state cycle.
type Auditor struct {
	factory  *store.ClientFactory
	pg       *store.PostgresClient
	logger   *slog.Logger
	token    string // stdio mode: the single token to authorize every fetch
	fanOut   int
}

// NewAuditor creates an Auditor. token is injected into context for every
// fetch in stdio mode, where there is no per-request caller token; in HTTP
// mode the factory's admin token is used instead and token should be "".
func NewAuditor(factory *store.ClientFactory, pg *store.PostgresClient, logger *slog.Logger, token string) *Auditor {
	return &Auditor{
		factory: factory,
		pg:      pg,
		logger:  logger,
		token:   token,
		fanOut:  8,
	}
}

// Name identifies this job to the scheduler.
func (a *Auditor) Name() string { return "audit" }

// Run lists every known model set ID from the relational mirror and re-runs
// the loop checker over each concurrently, reporting (but not repairing) any
// that now fail.
func (a *Auditor) Run(ctx context.Context) error {
	if a.token != "" {
		ctx = store.WithToken(ctx, a.token)
	}

	ids, err := a.pg.ListModelSetIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing model set ids: %w", err)
	}

	report, err := a.checkAll(ctx, ids)
	if err != nil {
		return err
	}

	if len(report.Issues) > 0 {
		a.logger.Warn("audit found failing model sets", "checked", report.Checked, "issues", len(report.Issues))
		for _, issue := range report.Issues {
			a.logger.Warn("model set fails loop check", "model_set_id", issue.ModelSetID, "message", issue.Message)
		}
	} else {
		a.logger.Info("audit complete, all model sets pass", "checked", report.Checked)
	}

	return nil
}

// checkAll fans out the loop check across ids using errgroup, bounded to
// a.fanOut concurrent fetches so a large mirror doesn't open unbounded
// connections against the store.
func (a *Auditor) checkAll(ctx context.Context, ids []string) (Report, error) {
	client, err := a.factory.ClientFor(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("creating client: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.fanOut)

	issues := make(chan Issue, len(ids))

	for _, id := range ids {
		id := id
		g.Go(func() error {
			set, err := client.GetModelSet(ctx, id)
			if err != nil {
				return fmt.Errorf("fetching model set %s: %w", id, err)
			}
			if !loopcheck.Check(set.Models) {
				issues <- Issue{ModelSetID: id, Message: "loop check failed on re-audit"}
			}
			return nil
		})
	}

	err = g.Wait()
	close(issues)
	if err != nil {
		return Report{}, err
	}

	report := Report{Checked: len(ids)}
	for issue := range issues {
		report.Issues = append(report.Issues, issue)
	}
	return report, nil
}

// RunOnce constructs an Auditor from config and runs it a single time, for
// CLI-driven audits outside the scheduler.
func RunOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Report, error) {
	factory := store.NewClientFactory(cfg.Store.URL, cfg.Store.AdminToken, 5, 5, 20, logger)
	pg, err := store.NewPostgresClient(cfg.Store.DatabaseURL)
	if err != nil {
		return Report{}, err
	}
	defer pg.Close()

	token := ""
	if cfg.Transport.Mode == "stdio" {
		token = cfg.Store.Token
	}

	a := NewAuditor(factory, pg, logger, token)
	ids, err := pg.ListModelSetIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing model set ids: %w", err)
	}
	if token != "" {
		ctx = store.WithToken(ctx, token)
	}
	return a.checkAll(ctx, ids)
}
