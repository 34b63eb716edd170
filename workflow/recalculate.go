package workflow

import (
	"fmt"

	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/shopspring/decimal"
)

// Recalculate recomputes every row's monthly chain and returns a fresh
// snapshot; the input rows are never mutated. For each row, in month order:
//
//	closing[m] = opening[m] + shipmentTotal[m] - sales[m]
//	opening[m+1] = closing[m]
//
// Rows whose warehouse classifies as direct shipment keep their sales and
// shipments for reporting, but both terms are zeroed inside the equation.
// Direct-shipment pseudo-rows mirror their direct quantity into sales before
// the equation runs.
//
// An opening-stock override seeds the first month only; months after the
// first are always carry-forward.
//
// The result is idempotent: recalculating an already-recalculated snapshot
// returns the same values.
func Recalculate(months []models.MonthKey, rows []*models.StockRow, overrides *models.OpeningStockOverrideStore) ([]*models.StockRow, error) {
	if len(months) == 0 {
		return nil, fmt.Errorf("recalculate: empty month sequence")
	}
	if overrides == nil {
		overrides = models.NewOpeningStockOverrideStore()
	}

	out := make([]*models.StockRow, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if !row.HasMonthlyMaps() {
			if config.StrictRowValidation() {
				return nil, fmt.Errorf("recalculate: row %s is missing monthly maps", row.ID)
			}
			// Tolerate partially-constructed rows: pass through unchanged.
			out = append(out, row)
			continue
		}
		out = append(out, recalculateRow(months, row, overrides))
	}
	return out, nil
}

func recalculateRow(months []models.MonthKey, row *models.StockRow, overrides *models.OpeningStockOverrideStore) *models.StockRow {
	r := row.Clone()
	direct := IsDirectShipment(r.Warehouse.Name)

	for i, m := range months {
		if r.RowType == models.RowTypeDirectShipment {
			r.MonthlySales[m] = r.MonthlyDirectShipmentQty[m]
		}

		if i == 0 {
			if ov := overrides.Get(r.Product.Name, r.Warehouse.Name, m); ov.Valid {
				r.MonthlyOpeningStock[m] = ov.Decimal
			}
			// No override: keep the stored value as-is, placeholders are
			// never substituted.
		}

		opening := r.MonthlyOpeningStock[m]
		sales := r.MonthlySales[m]
		shipmentTotal := r.ShipmentTotal(m)
		if direct {
			// Equation inputs only; the row's own sales stay untouched for
			// reporting and TotalSales.
			sales = decimal.Zero
			shipmentTotal = decimal.Zero
		}

		closing := opening.Add(shipmentTotal).Sub(sales)
		r.MonthlyClosingStock[m] = closing
		if i < len(months)-1 {
			// Row-local carry-forward. Consolidation later overrides this
			// for multi-row groups, but a row viewed alone stays
			// self-consistent.
			r.MonthlyOpeningStock[months[i+1]] = closing
		}
	}

	total := decimal.Zero
	for _, m := range months {
		total = total.Add(r.MonthlySales[m])
	}
	r.TotalSales = total
	return r
}
