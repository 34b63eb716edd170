package workflow

import (
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/shopspring/decimal"
)

// GroupSeries is the consolidated monthly chain for one (product, warehouse)
// group. This is what the sheet's summary rows display; individual rows'
// closing figures are not independently meaningful once a group has more
// than one customer row.
type GroupSeries struct {
	ProductName      string                              `json:"product_name"`
	WarehouseName    string                              `json:"warehouse_name"`
	OpeningByMonth   map[models.MonthKey]decimal.Decimal `json:"opening_by_month"`
	ShipmentsByMonth map[models.MonthKey]decimal.Decimal `json:"shipments_by_month"`
	SalesByMonth     map[models.MonthKey]decimal.Decimal `json:"sales_by_month"`
	ClosingByMonth   map[models.MonthKey]decimal.Decimal `json:"closing_by_month"`
}

// Consolidate merges rows sharing (product, warehouse) into one aggregate
// chain per group. Customer is excluded from the grouping key. For each
// group, in month order:
//
//   - first month: opening = override if set, else the representative (first)
//     row's own opening. Never summed across rows: one row supplies the
//     group's opening stock so it is not counted once per customer.
//   - later months: opening = previous month's consolidated closing.
//   - shipments and sales = sums over the group's rows, excluding rows whose
//     warehouse classifies as direct shipment.
//   - closing = opening + shipments - sales.
//
// The consolidated series is written back onto rows only as far as the
// anti-double-counting rule requires: the representative row's openings are
// forced to the consolidated chain, every other row's openings to zero.
// Closing figures on individual rows are left as Recalculate computed them.
func Consolidate(months []models.MonthKey, rows []*models.StockRow, overrides *models.OpeningStockOverrideStore) map[models.GroupKey]*GroupSeries {
	result := make(map[models.GroupKey]*GroupSeries)
	if len(months) == 0 {
		return result
	}
	if overrides == nil {
		overrides = models.NewOpeningStockOverrideStore()
	}

	members := make(map[models.GroupKey][]*models.StockRow)
	order := make([]models.GroupKey, 0)
	for _, row := range rows {
		if row == nil {
			continue
		}
		key := row.GroupKey()
		if _, seen := members[key]; !seen {
			order = append(order, key)
		}
		members[key] = append(members[key], row)
	}

	firstMonth := months[0]
	for _, key := range order {
		group := members[key]
		if len(group) == 0 {
			continue
		}
		rep := group[0]
		series := &GroupSeries{
			ProductName:      rep.Product.Name,
			WarehouseName:    rep.Warehouse.Name,
			OpeningByMonth:   make(map[models.MonthKey]decimal.Decimal, len(months)),
			ShipmentsByMonth: make(map[models.MonthKey]decimal.Decimal, len(months)),
			SalesByMonth:     make(map[models.MonthKey]decimal.Decimal, len(months)),
			ClosingByMonth:   make(map[models.MonthKey]decimal.Decimal, len(months)),
		}

		for i, m := range months {
			var opening decimal.Decimal
			if i == 0 {
				if ov := overrides.Get(rep.Product.Name, rep.Warehouse.Name, firstMonth); ov.Valid {
					opening = ov.Decimal
				} else if rep.MonthlyOpeningStock != nil {
					opening = rep.MonthlyOpeningStock[m]
				}
			} else {
				opening = series.ClosingByMonth[months[i-1]]
				if rep.MonthlyOpeningStock != nil {
					rep.MonthlyOpeningStock[m] = opening
				}
			}
			// Anti-double-counting: siblings never carry the group's opening.
			for _, r := range group[1:] {
				if r.MonthlyOpeningStock != nil {
					r.MonthlyOpeningStock[m] = decimal.Zero
				}
			}

			shipments := decimal.Zero
			sales := decimal.Zero
			for _, r := range group {
				// Guards against direct-shipment pseudo-rows landing in a
				// group; in practice a group is homogeneous in warehouse.
				if r.RowType == models.RowTypeDirectShipment || IsDirectShipment(r.Warehouse.Name) {
					continue
				}
				shipments = shipments.Add(r.ShipmentTotal(m))
				if r.MonthlySales != nil {
					sales = sales.Add(r.MonthlySales[m])
				}
			}

			closing := opening.Add(shipments).Sub(sales)
			series.OpeningByMonth[m] = opening
			series.ShipmentsByMonth[m] = shipments
			series.SalesByMonth[m] = sales
			series.ClosingByMonth[m] = closing
		}

		result[key] = series
	}
	return result
}
