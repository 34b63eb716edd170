package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/kunal-9999/inventory-management-system-sub000/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Engine states for the recalculation guard.
const (
	stateIdle int32 = iota
	stateRecalculating
)

// EditEvent is a single user edit to a sheet cell.
type EditEvent struct {
	RowID     string                 `json:"row_id"`
	Field     models.EditField       `json:"field"`
	Month     models.MonthKey        `json:"month"`
	RawValue  string                 `json:"raw_value"`
	Shipments []models.ShipmentEntry `json:"shipments,omitempty"`
}

// RemoteSalesTotal is an authoritative per-(product,warehouse) monthly sales
// series from an external system of record. When present it replaces locally
// entered sales before recalculation.
type RemoteSalesTotal struct {
	ProductName   string                              `json:"product_name"`
	WarehouseName string                              `json:"warehouse_name"`
	MonthlySales  map[models.MonthKey]decimal.Decimal `json:"monthly_sales"`
}

// Observer receives the fresh snapshot after every successful recalculation.
// Replaces the old DOM-event broadcast between the sheet and its dashboards.
type Observer interface {
	SheetRecalculated(sheetId string, rows []*models.StockRow, groups map[models.GroupKey]*GroupSeries)
}

// SnapshotStore is the persistence collaborator. Saves replace the whole
// snapshot; loads tolerate an empty store.
type SnapshotStore interface {
	LoadRows(ctx context.Context, sheetId string) ([]*models.StockRow, error)
	ReplaceRows(ctx context.Context, sheetId string, rows []*models.StockRow) error
}

// Engine owns one sheet's row store, override store and consolidated series.
// Every edit recalculates the full row set (not just the edited row) and
// swaps the snapshot atomically.
type Engine struct {
	sheetId   string
	months    []models.MonthKey
	logger    *logrus.Logger
	store     SnapshotStore
	overrides *models.OpeningStockOverrideStore

	// Guard: a recalculation requested while one is in flight is skipped
	// silently. The triggering edit has already mutated the row store, so
	// the in-flight caller's successor will pick it up; queueing would only
	// replay stale work.
	state atomic.Int32

	mu       sync.Mutex
	rows     []*models.StockRow
	groups   map[models.GroupKey]*GroupSeries
	warnings []models.DuplicateWarning

	obsMu     sync.Mutex
	observers []Observer
}

func NewEngine(sheetId string, months []models.MonthKey, logger *logrus.Logger, store SnapshotStore) *Engine {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Engine{
		sheetId:   sheetId,
		months:    months,
		logger:    logger,
		store:     store,
		overrides: models.NewOpeningStockOverrideStore(),
		groups:    make(map[models.GroupKey]*GroupSeries),
	}
}

func (e *Engine) SheetId() string           { return e.sheetId }
func (e *Engine) Months() []models.MonthKey { return e.months }

func (e *Engine) Overrides() *models.OpeningStockOverrideStore { return e.overrides }

// LoadSnapshot seeds the engine from the persisted snapshot and runs an
// initial recalculation. An empty store yields an empty sheet.
func (e *Engine) LoadSnapshot(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	rows, err := e.store.LoadRows(ctx, e.sheetId)
	if err != nil {
		config.LogError(e.logger, "engine.go", "LoadSnapshot", "LoadRows", e.sheetId, err)
		return err
	}
	e.mu.Lock()
	e.rows = rows
	e.mu.Unlock()
	_, err = e.Recalculate(ctx)
	return err
}

func (e *Engine) Subscribe(o Observer) {
	if o == nil {
		return
	}
	e.obsMu.Lock()
	e.observers = append(e.observers, o)
	e.obsMu.Unlock()
}

// Rows returns a deep copy of the current snapshot.
func (e *Engine) Rows() []*models.StockRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.CloneRows(e.rows)
}

func (e *Engine) Groups() map[models.GroupKey]*GroupSeries {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[models.GroupKey]*GroupSeries, len(e.groups))
	for k, v := range e.groups {
		out[k] = v
	}
	return out
}

func (e *Engine) Warnings() []models.DuplicateWarning {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.DuplicateWarning, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// AddRow appends a regular row with all months pre-initialized to zero.
func (e *Engine) AddRow(ctx context.Context, product models.Product, customer models.Customer, warehouse models.Warehouse) (*models.StockRow, error) {
	row := models.NewStockRow(e.months, product, customer, warehouse, models.RowTypeRegular)
	e.mu.Lock()
	e.rows = append(e.rows, row)
	e.mu.Unlock()
	if _, err := e.Recalculate(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

// AddDirectShipmentRow appends a direct-shipment pseudo-row.
func (e *Engine) AddDirectShipmentRow(ctx context.Context, product models.Product, customer models.Customer, warehouse models.Warehouse) (*models.StockRow, error) {
	row := models.NewStockRow(e.months, product, customer, warehouse, models.RowTypeDirectShipment)
	e.mu.Lock()
	e.rows = append(e.rows, row)
	e.mu.Unlock()
	if _, err := e.Recalculate(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

func (e *Engine) DeleteRow(ctx context.Context, rowId string) error {
	e.mu.Lock()
	found := false
	kept := e.rows[:0]
	for _, r := range e.rows {
		if r != nil && r.ID == rowId {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	e.rows = kept
	e.mu.Unlock()
	if !found {
		return utils.ErrorRecordNotFound
	}
	_, err := e.Recalculate(ctx)
	return err
}

// ApplyEdit mutates the target cell and triggers a recalculation. Quantity
// values are parsed with fallback-to-zero; a bad value never errors back to
// the user. Returns false when the recalculation was skipped because one was
// already in flight.
func (e *Engine) ApplyEdit(ctx context.Context, ev EditEvent) (bool, error) {
	if !ev.Field.Valid() {
		return false, fmt.Errorf("invalid edit field %q", string(ev.Field))
	}

	e.mu.Lock()
	row := e.findRowLocked(ev.RowID)
	if row == nil {
		e.mu.Unlock()
		return false, utils.ErrorRecordNotFound
	}
	switch ev.Field {
	case models.EditFieldSales:
		if row.MonthlySales != nil {
			row.MonthlySales[ev.Month] = utils.ParseQuantity(ev.RawValue)
		}
	case models.EditFieldOpeningStock:
		if row.MonthlyOpeningStock != nil {
			row.MonthlyOpeningStock[ev.Month] = utils.ParseQuantity(ev.RawValue)
		}
	case models.EditFieldShipments:
		if row.MonthlyShipments != nil {
			entries := make([]models.ShipmentEntry, len(ev.Shipments))
			copy(entries, ev.Shipments)
			row.MonthlyShipments[ev.Month] = entries
		}
	case models.EditFieldDirectShipmentQty:
		if row.MonthlyDirectShipmentQty != nil {
			row.MonthlyDirectShipmentQty[ev.Month] = utils.ParseQuantity(ev.RawValue)
		}
		if row.MonthlyDirectShipmentText != nil {
			row.MonthlyDirectShipmentText[ev.Month] = ev.RawValue
		}
	}
	e.mu.Unlock()

	return e.Recalculate(ctx)
}

// SetOpeningStockOverride records a manual opening-stock entry using the
// sheet's raw string semantics ("", "0" and "-1" clear). Entries for months
// after the first are stored but the consolidation never reads them; they
// survive as display hints only.
func (e *Engine) SetOpeningStockOverride(ctx context.Context, productName, warehouseName string, month models.MonthKey, raw string) (bool, error) {
	e.overrides.SetRaw(productName, warehouseName, month, raw)
	return e.Recalculate(ctx)
}

// ApplyRemoteSales overwrites local sales with the remote system of record's
// totals and recalculates. The total is authoritative per group, so it lands
// on the group's first row and siblings are zeroed; summing per-row local
// sales would double-count against the remote figure.
func (e *Engine) ApplyRemoteSales(ctx context.Context, totals []RemoteSalesTotal) (bool, error) {
	if len(totals) == 0 {
		return false, nil
	}
	e.mu.Lock()
	for _, total := range totals {
		key := models.NewGroupKey(total.ProductName, total.WarehouseName)
		first := true
		for _, row := range e.rows {
			if row == nil || row.MonthlySales == nil || row.GroupKey() != key {
				continue
			}
			for m, qty := range total.MonthlySales {
				if first {
					row.MonthlySales[m] = qty
				} else {
					row.MonthlySales[m] = decimal.Zero
				}
			}
			first = false
		}
	}
	e.mu.Unlock()
	return e.Recalculate(ctx)
}

// Recalculate runs the full pipeline: per-row chains, consolidation,
// duplicate detection, snapshot swap, persistence, observer notification.
// Returns (false, nil) when skipped because a recalculation is in flight.
func (e *Engine) Recalculate(ctx context.Context) (bool, error) {
	if !e.state.CompareAndSwap(stateIdle, stateRecalculating) {
		e.logger.WithFields(logrus.Fields{
			"sheet_id": e.sheetId,
		}).Debug("recalc.skipped_in_flight")
		return false, nil
	}
	defer e.state.Store(stateIdle)

	e.mu.Lock()
	input := models.CloneRows(e.rows)
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"sheet_id":  e.sheetId,
		"row_count": len(input),
	}).Info("recalc.start")

	rows, err := Recalculate(e.months, input, e.overrides)
	if err != nil {
		config.LogError(e.logger, "engine.go", "Recalculate", "Recalculate", e.sheetId, err)
		return false, err
	}
	groups := Consolidate(e.months, rows, e.overrides)
	warnings := models.DetectDuplicateRows(rows)

	// Once published, the rows in e.rows are live: a concurrent edit can
	// mutate their maps the moment the lock drops. The store and observers
	// get their own copy, taken while rows is still private.
	snapshot := models.CloneRows(rows)

	e.mu.Lock()
	e.rows = rows
	e.groups = groups
	e.warnings = warnings
	e.mu.Unlock()

	if e.store != nil {
		release, lockErr := utils.SheetLock(ctx, e.sheetId, "sheetSnapshot", "engine.go", "Recalculate")
		if lockErr != nil {
			return false, lockErr
		}
		saveErr := e.store.ReplaceRows(ctx, e.sheetId, snapshot)
		release()
		if saveErr != nil {
			config.LogError(e.logger, "engine.go", "Recalculate", "ReplaceRows", e.sheetId, saveErr)
			return false, saveErr
		}
	}

	e.logger.WithFields(logrus.Fields{
		"sheet_id":    e.sheetId,
		"row_count":   len(rows),
		"group_count": len(groups),
		"warnings":    len(warnings),
	}).Info("recalc.end")

	e.notify(snapshot, groups)
	return true, nil
}

func (e *Engine) notify(rows []*models.StockRow, groups map[models.GroupKey]*GroupSeries) {
	e.obsMu.Lock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.obsMu.Unlock()
	for _, o := range observers {
		o.SheetRecalculated(e.sheetId, rows, groups)
	}
}

func (e *Engine) findRowLocked(rowId string) *models.StockRow {
	for _, r := range e.rows {
		if r != nil && r.ID == rowId {
			return r
		}
	}
	return nil
}
