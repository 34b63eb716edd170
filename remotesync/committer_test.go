package remotesync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/shopspring/decimal"
)

type capturingPush struct {
	mu    sync.Mutex
	edits []CellEdit
}

func (p *capturingPush) push(_ context.Context, edit CellEdit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edits = append(p.edits, edit)
	return nil
}

func (p *capturingPush) snapshot() []CellEdit {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CellEdit, len(p.edits))
	copy(out, p.edits)
	return out
}

func cellEdit(value int64) CellEdit {
	return CellEdit{
		SheetId:  "sheet-1",
		RowId:    "row-1",
		Field:    models.EditFieldSales,
		Month:    "2023-12",
		Value:    decimal.NewFromInt(value),
		EditedAt: time.Now(),
	}
}

func TestCommitter_LastWriteWinsPerCell(t *testing.T) {
	sink := &capturingPush{}
	c := NewCommitter(30*time.Millisecond, sink.push, nil)
	defer c.Stop()

	// Three rapid keystrokes to the same cell: only the last value commits.
	c.Queue(cellEdit(1))
	c.Queue(cellEdit(12))
	c.Queue(cellEdit(123))

	deadline := time.After(2 * time.Second)
	for {
		if edits := sink.snapshot(); len(edits) > 0 {
			if len(edits) != 1 {
				t.Fatalf("expected exactly 1 committed edit, got %d", len(edits))
			}
			if !edits[0].Value.Equal(decimal.NewFromInt(123)) {
				t.Fatalf("expected last value 123, got %s", edits[0].Value)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("no edit committed before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCommitter_DistinctCellsCommitIndependently(t *testing.T) {
	sink := &capturingPush{}
	c := NewCommitter(10*time.Millisecond, sink.push, nil)
	defer c.Stop()

	a := cellEdit(1)
	b := cellEdit(2)
	b.Month = "2024-01"
	c.Queue(a)
	c.Queue(b)

	deadline := time.After(2 * time.Second)
	for {
		if edits := sink.snapshot(); len(edits) == 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected 2 committed edits, got %d", len(sink.snapshot()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCommitter_FlushPushesPendingImmediately(t *testing.T) {
	sink := &capturingPush{}
	c := NewCommitter(time.Hour, sink.push, nil)
	defer c.Stop()

	c.Queue(cellEdit(7))
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if edits := sink.snapshot(); len(edits) != 1 || !edits[0].Value.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected flushed edit with value 7, got %+v", edits)
	}
	if c.PendingCount() != 0 {
		t.Fatalf("expected no pending edits after flush")
	}
}

func TestCommitter_StopCancelsPending(t *testing.T) {
	sink := &capturingPush{}
	c := NewCommitter(20*time.Millisecond, sink.push, nil)

	c.Queue(cellEdit(9))
	c.Stop()
	time.Sleep(60 * time.Millisecond)
	if edits := sink.snapshot(); len(edits) != 0 {
		t.Fatalf("expected no commits after Stop, got %d", len(edits))
	}
	// Queue after Stop is a no-op.
	c.Queue(cellEdit(10))
	if c.PendingCount() != 0 {
		t.Fatalf("expected Queue after Stop to be ignored")
	}
}
