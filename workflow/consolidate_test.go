package workflow

import (
	"testing"

	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/shopspring/decimal"
)

func TestConsolidate_TwoCustomerGroup(t *testing.T) {
	// FIN90 at MAIN, customers A and B. Override seeds first-month opening
	// 1000; A sells 200, B sells 300, no shipments.
	// Consolidated closing = 1000 + 0 - 500 = 500.
	// Row A recalculated in isolation closes at 800 (1000 - 200).
	months := testMonths()
	rowA := newTestRow(months, "FIN90", "A", "MAIN")
	rowA.MonthlySales[months[0]] = d(200)
	rowB := newTestRow(months, "FIN90", "B", "MAIN")
	rowB.MonthlySales[months[0]] = d(300)

	overrides := models.NewOpeningStockOverrideStore()
	overrides.SetRaw("FIN90", "MAIN", months[0], "1000")

	rows, err := Recalculate(months, []*models.StockRow{rowA, rowB}, overrides)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	// Row-level divergence the sheet must reproduce: row A's own closing.
	if !rows[0].MonthlyClosingStock[months[0]].Equal(d(800)) {
		t.Fatalf("expected row A closing 800, got %s", rows[0].MonthlyClosingStock[months[0]])
	}

	groups := Consolidate(months, rows, overrides)
	key := models.NewGroupKey("FIN90", "MAIN")
	series, ok := groups[key]
	if !ok {
		t.Fatalf("expected group for FIN90/MAIN")
	}
	if !series.OpeningByMonth[months[0]].Equal(d(1000)) {
		t.Fatalf("expected consolidated opening 1000, got %s", series.OpeningByMonth[months[0]])
	}
	if !series.SalesByMonth[months[0]].Equal(d(500)) {
		t.Fatalf("expected consolidated sales 500, got %s", series.SalesByMonth[months[0]])
	}
	if !series.ClosingByMonth[months[0]].Equal(d(500)) {
		t.Fatalf("expected consolidated closing 500, got %s", series.ClosingByMonth[months[0]])
	}

	// No double counting: sibling's first-month opening forced to zero.
	if !rows[1].MonthlyOpeningStock[months[0]].Equal(decimal.Zero) {
		t.Fatalf("expected row B first-month opening 0, got %s", rows[1].MonthlyOpeningStock[months[0]])
	}
	// Representative carries the consolidated chain forward.
	if !rows[0].MonthlyOpeningStock[months[1]].Equal(d(500)) {
		t.Fatalf("expected row A month-2 opening 500, got %s", rows[0].MonthlyOpeningStock[months[1]])
	}
	if !rows[1].MonthlyOpeningStock[months[1]].Equal(decimal.Zero) {
		t.Fatalf("expected row B month-2 opening 0, got %s", rows[1].MonthlyOpeningStock[months[1]])
	}
}

func TestConsolidate_Additivity(t *testing.T) {
	months := testMonths()
	rowA := newTestRow(months, "CALPRO", "A", "IGL")
	rowA.MonthlySales[months[1]] = d(100)
	rowA.MonthlyShipments[months[1]] = []models.ShipmentEntry{
		{ShipmentNumber: "SH-1", Qty: d(40)},
	}
	rowB := newTestRow(months, "CALPRO", "B", "IGL")
	rowB.MonthlySales[months[1]] = d(60)
	rowB.MonthlyShipments[months[1]] = []models.ShipmentEntry{
		{ShipmentNumber: "SH-2", Qty: d(10)},
		{ShipmentNumber: "SH-3", Qty: d(-5)},
	}
	// A direct-shipment pseudo-row in the same product must not contribute.
	rowDS := models.NewStockRow(
		months,
		models.Product{ID: "p-CALPRO", Name: "CALPRO", Unit: "kg"},
		models.Customer{ID: "c-C", Name: "C"},
		models.Warehouse{ID: "w-ds", Name: "Direct Ship"},
		models.RowTypeDirectShipment,
	)
	rowDS.MonthlyDirectShipmentQty[months[1]] = d(999)

	rows, err := Recalculate(months, []*models.StockRow{rowA, rowB, rowDS}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	groups := Consolidate(months, rows, nil)
	series := groups[models.NewGroupKey("CALPRO", "IGL")]
	if series == nil {
		t.Fatalf("expected group for CALPRO/IGL")
	}
	if !series.SalesByMonth[months[1]].Equal(d(160)) {
		t.Fatalf("expected sales 160, got %s", series.SalesByMonth[months[1]])
	}
	if !series.ShipmentsByMonth[months[1]].Equal(d(45)) {
		t.Fatalf("expected shipments 45, got %s", series.ShipmentsByMonth[months[1]])
	}
	if !series.ClosingByMonth[months[1]].Equal(d(-115)) {
		t.Fatalf("expected closing -115, got %s", series.ClosingByMonth[months[1]])
	}

	// The direct pseudo-row still reports its sales in TotalSales.
	if !rows[2].TotalSales.Equal(d(999)) {
		t.Fatalf("expected direct row total sales 999, got %s", rows[2].TotalSales)
	}
	// But its own group series never moves stock.
	ds := groups[models.NewGroupKey("CALPRO", "Direct Ship")]
	if ds == nil {
		t.Fatalf("expected group for the direct pseudo-row")
	}
	if !ds.SalesByMonth[months[1]].Equal(decimal.Zero) || !ds.ShipmentsByMonth[months[1]].Equal(decimal.Zero) {
		t.Fatalf("direct pseudo-row leaked into stock sums: sales=%s shipments=%s",
			ds.SalesByMonth[months[1]], ds.ShipmentsByMonth[months[1]])
	}
}

func TestConsolidate_FirstMonthOpeningNotSummed(t *testing.T) {
	months := testMonths()
	rowA := newTestRow(months, "FIN90", "A", "MAIN")
	rowA.MonthlyOpeningStock[months[0]] = d(700)
	rowB := newTestRow(months, "FIN90", "B", "MAIN")
	rowB.MonthlyOpeningStock[months[0]] = d(700)

	rows, err := Recalculate(months, []*models.StockRow{rowA, rowB}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	groups := Consolidate(months, rows, nil)
	series := groups[models.NewGroupKey("FIN90", "MAIN")]
	// Exactly one representative supplies the opening, never the sum (1400).
	if !series.OpeningByMonth[months[0]].Equal(d(700)) {
		t.Fatalf("expected opening 700, got %s", series.OpeningByMonth[months[0]])
	}
}

func TestConsolidate_EmptyRowsYieldNoGroups(t *testing.T) {
	groups := Consolidate(testMonths(), nil, nil)
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestConsolidate_CustomerExcludedFromGroupKey(t *testing.T) {
	months := testMonths()
	rows, err := Recalculate(months, []*models.StockRow{
		newTestRow(months, "CALPRO", "A", "IGL"),
		newTestRow(months, "CALPRO", "B", "IGL"),
		newTestRow(months, "CALPRO", "A", "MAIN"),
	}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	groups := Consolidate(months, rows, nil)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups (IGL, MAIN), got %d", len(groups))
	}
}
