package remotesync

import (
	"context"
	"sync"
	"time"

	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultCommitDelay is how long after the last keystroke a cell edit sits
// before it is pushed to the mirror.
const DefaultCommitDelay = 500 * time.Millisecond

// CellEdit is one committed cell value bound for the remote mirror.
type CellEdit struct {
	SheetId  string
	RowId    string
	Field    models.EditField
	Month    models.MonthKey
	Value    decimal.Decimal
	EditedAt time.Time
}

type cellKey struct {
	sheetId string
	rowId   string
	field   models.EditField
	month   models.MonthKey
}

type pendingEdit struct {
	edit  CellEdit
	timer *time.Timer
}

// Committer debounces cell edits before pushing them to the remote mirror.
// A newer edit to the same cell cancels the pending push and restarts the
// delay: last write wins per cell, earlier values are never sent.
type Committer struct {
	mu      sync.Mutex
	pending map[cellKey]*pendingEdit
	delay   time.Duration
	push    func(ctx context.Context, edit CellEdit) error
	logger  *logrus.Logger
	stopped bool
}

func NewCommitter(delay time.Duration, push func(ctx context.Context, edit CellEdit) error, logger *logrus.Logger) *Committer {
	if delay <= 0 {
		delay = DefaultCommitDelay
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Committer{
		pending: make(map[cellKey]*pendingEdit),
		delay:   delay,
		push:    push,
		logger:  logger,
	}
}

// Queue schedules an edit for commit after the debounce delay. Superseding
// edits to the same cell reset the delay and replace the value.
func (c *Committer) Queue(edit CellEdit) {
	key := cellKey{sheetId: edit.SheetId, rowId: edit.RowId, field: edit.Field, month: edit.Month}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if prev, ok := c.pending[key]; ok {
		prev.timer.Stop()
		prev.edit = edit
		prev.timer.Reset(c.delay)
		return
	}
	p := &pendingEdit{edit: edit}
	p.timer = time.AfterFunc(c.delay, func() { c.fire(key) })
	c.pending[key] = p
}

func (c *Committer) fire(key cellKey) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.push(ctx, p.edit); err != nil {
		config.LogError(c.logger, "committer.go", "fire", "PushCellEdit", p.edit, err)
		return
	}
	c.logger.WithFields(logrus.Fields{
		"sheet_id": p.edit.SheetId,
		"row_id":   p.edit.RowId,
		"field":    string(p.edit.Field),
		"month":    string(p.edit.Month),
	}).Debug("mirror.cell_committed")
}

// Flush pushes every pending edit immediately, in no particular order.
func (c *Committer) Flush(ctx context.Context) error {
	c.mu.Lock()
	edits := make([]CellEdit, 0, len(c.pending))
	for key, p := range c.pending {
		p.timer.Stop()
		edits = append(edits, p.edit)
		delete(c.pending, key)
	}
	c.mu.Unlock()

	var firstErr error
	for _, edit := range edits {
		if err := c.push(ctx, edit); err != nil {
			config.LogError(c.logger, "committer.go", "Flush", "PushCellEdit", edit, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Stop cancels all pending pushes. Subsequent Queue calls are ignored.
func (c *Committer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for key, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, key)
	}
}

// PendingCount is for tests and shutdown accounting.
func (c *Committer) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
