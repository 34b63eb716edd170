package main

import (
	"context"
	"sync"
	"time"

	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/kunal-9999/inventory-management-system-sub000/remotesync"
	"github.com/kunal-9999/inventory-management-system-sub000/workflow"
	"github.com/sirupsen/logrus"
)

// sheetRegistry lazily builds one engine per sheet. Engines created before
// the database connects run in-memory only and are rebuilt from the snapshot
// the first time they are requested after the store arrives.
type sheetRegistry struct {
	mu        sync.Mutex
	engines   map[string]*workflow.Engine
	store     *models.SheetStore
	committer *remotesync.Committer
	cancels   []context.CancelFunc
	logger    *logrus.Logger
}

func newSheetRegistry(logger *logrus.Logger) *sheetRegistry {
	if logger == nil {
		logger = config.GetLogger()
	}
	reg := &sheetRegistry{
		engines: make(map[string]*workflow.Engine),
		logger:  logger,
	}
	committer, err := remotesync.NewCellCommitter(logger)
	if err != nil {
		config.LogError(logger, "registry.go", "newSheetRegistry", "NewCellCommitter", nil, err)
	}
	reg.committer = committer
	return reg
}

func (reg *sheetRegistry) setStore(store *models.SheetStore) {
	reg.mu.Lock()
	reg.store = store
	// Engines built before the DB came up carry no store; drop them so the
	// next request reloads from the snapshot.
	reg.engines = make(map[string]*workflow.Engine)
	reg.mu.Unlock()
}

func (reg *sheetRegistry) engine(ctx context.Context, sheetId string) (*workflow.Engine, error) {
	reg.mu.Lock()
	if eng, ok := reg.engines[sheetId]; ok {
		reg.mu.Unlock()
		return eng, nil
	}
	store := reg.store
	reg.mu.Unlock()

	months := models.DefaultMonthSequence(time.Now().UTC())
	var snapshot workflow.SnapshotStore
	if store != nil {
		snapshot = store
	}
	eng := workflow.NewEngine(sheetId, months, reg.logger, snapshot)
	if store != nil {
		if err := eng.LoadSnapshot(ctx); err != nil {
			return nil, err
		}
		overrides, err := store.LoadOverrides(ctx, sheetId)
		if err != nil {
			return nil, err
		}
		for key, value := range overrides.Snapshot() {
			eng.Overrides().Set(key.ProductName, key.WarehouseName, key.Month, value)
		}
	}

	if runner, err := remotesync.NewRunner(eng, reg.logger); err != nil {
		config.LogError(reg.logger, "registry.go", "engine", "NewRunner", sheetId, err)
	} else if runner != nil {
		runCtx, cancel := context.WithCancel(context.Background())
		go runner.Run(runCtx)
		reg.mu.Lock()
		reg.cancels = append(reg.cancels, cancel)
		reg.mu.Unlock()
	}

	reg.mu.Lock()
	// Another request may have raced us here; keep the first one in.
	if existing, ok := reg.engines[sheetId]; ok {
		reg.mu.Unlock()
		return existing, nil
	}
	reg.engines[sheetId] = eng
	reg.mu.Unlock()
	return eng, nil
}

func (reg *sheetRegistry) saveOverrides(ctx context.Context, sheetId string, eng *workflow.Engine) {
	reg.mu.Lock()
	store := reg.store
	reg.mu.Unlock()
	if store == nil {
		return
	}
	if err := store.ReplaceOverrides(ctx, sheetId, eng.Overrides()); err != nil {
		config.LogError(reg.logger, "registry.go", "saveOverrides", "ReplaceOverrides", sheetId, err)
	}
}

func (reg *sheetRegistry) queueMirrorEdit(edit remotesync.CellEdit) {
	if reg.committer == nil {
		return
	}
	reg.committer.Queue(edit)
}

func (reg *sheetRegistry) shutdown() {
	reg.mu.Lock()
	cancels := reg.cancels
	reg.cancels = nil
	committer := reg.committer
	reg.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	if committer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = committer.Flush(ctx)
		committer.Stop()
	}
}
