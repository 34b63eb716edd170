package remotesync

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/workflow"
	"github.com/sirupsen/logrus"
)

// Runner periodically pulls authoritative sales totals from the mirror and
// feeds them to the engine before its next recalculation.
type Runner struct {
	client   *mirrorClient
	engine   *workflow.Engine
	interval time.Duration
	logger   *logrus.Logger
}

// NewRunner wires a mirror pull loop for one sheet's engine. Returns nil
// when the mirror is disabled via REMOTE_SALES_MIRROR.
func NewRunner(engine *workflow.Engine, logger *logrus.Logger) (*Runner, error) {
	if !config.RemoteSalesMirror() {
		return nil, nil
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	client, err := newMirrorClient(os.Getenv("MIRROR_API_KEY"))
	if err != nil {
		return nil, err
	}
	interval := 5 * time.Minute
	if v := strings.TrimSpace(os.Getenv("MIRROR_PULL_INTERVAL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Second
		}
	}
	return &Runner{client: client, engine: engine, interval: interval, logger: logger}, nil
}

// NewCellCommitter builds the debounced mirror writer for the same client
// configuration the Runner uses.
func NewCellCommitter(logger *logrus.Logger) (*Committer, error) {
	if !config.RemoteSalesMirror() {
		return nil, nil
	}
	client, err := newMirrorClient(os.Getenv("MIRROR_API_KEY"))
	if err != nil {
		return nil, err
	}
	delay := DefaultCommitDelay
	if v := strings.TrimSpace(os.Getenv("MIRROR_COMMIT_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			delay = time.Duration(n) * time.Millisecond
		}
	}
	return NewCommitter(delay, client.PushCellEdit, logger), nil
}

// Run blocks until ctx is done, pulling on every tick. A failed pull is
// logged and retried on the next tick; the sheet keeps serving local values.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pullOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pullOnce(ctx)
		}
	}
}

func (r *Runner) pullOnce(ctx context.Context) {
	sheetId := r.engine.SheetId()
	totals, err := r.client.FetchSalesTotals(ctx, sheetId)
	if err != nil {
		config.LogError(r.logger, "runner.go", "pullOnce", "FetchSalesTotals", sheetId, err)
		return
	}
	if len(totals) == 0 {
		return
	}
	ran, err := r.engine.ApplyRemoteSales(ctx, totals)
	if err != nil {
		config.LogError(r.logger, "runner.go", "pullOnce", "ApplyRemoteSales", sheetId, err)
		return
	}
	r.logger.WithFields(logrus.Fields{
		"sheet_id":     sheetId,
		"total_groups": len(totals),
		"recalculated": ran,
	}).Info("mirror.pull_applied")
}
