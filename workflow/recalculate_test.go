package workflow

import (
	"testing"
	"time"

	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/shopspring/decimal"
)

func testMonths() []models.MonthKey {
	return models.MonthSequence(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC))
}

func newTestRow(months []models.MonthKey, product, customer, warehouse string) *models.StockRow {
	return models.NewStockRow(
		months,
		models.Product{ID: "p-" + product, Name: product, Unit: "kg"},
		models.Customer{ID: "c-" + customer, Name: customer},
		models.Warehouse{ID: "w-" + warehouse, Name: warehouse},
		models.RowTypeRegular,
	)
}

func d(value int64) decimal.Decimal { return decimal.NewFromInt(value) }

func TestRecalculate_NetNegativeShipmentScenario(t *testing.T) {
	// CALPRO at IGL: opening 105125, net shipment -36000 (returns exceeding
	// inbound), sales 8400 => closing 60725.
	months := testMonths()
	row := newTestRow(months, "CALPRO", "ACME", "IGL")
	row.MonthlyOpeningStock[months[0]] = d(105125)
	row.MonthlyShipments[months[0]] = []models.ShipmentEntry{
		{ShipmentNumber: "SH-001", Qty: d(-36000)},
	}
	row.MonthlySales[months[0]] = d(8400)

	out, err := Recalculate(months, []*models.StockRow{row}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	got := out[0].MonthlyClosingStock[months[0]]
	if !got.Equal(d(60725)) {
		t.Fatalf("expected closing 60725, got %s", got)
	}
}

func TestRecalculate_ChainAndEquationInvariants(t *testing.T) {
	months := testMonths()
	row := newTestRow(months, "FIN90", "ACME", "MAIN")
	row.MonthlyOpeningStock[months[0]] = d(1000)
	row.MonthlySales[months[0]] = d(200)
	row.MonthlySales[months[3]] = d(150)
	row.MonthlyShipments[months[1]] = []models.ShipmentEntry{
		{ShipmentNumber: "SH-100", Qty: d(500)},
		{ShipmentNumber: "SH-101", Qty: d(-50)},
	}

	out, err := Recalculate(months, []*models.StockRow{row}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	r := out[0]
	for i, m := range months {
		opening := r.MonthlyOpeningStock[m]
		closing := r.MonthlyClosingStock[m]
		expected := opening.Add(r.ShipmentTotal(m)).Sub(r.MonthlySales[m])
		if !closing.Equal(expected) {
			t.Fatalf("month %s: equation violated, closing=%s expected=%s", m, closing, expected)
		}
		if i > 0 {
			prev := r.MonthlyClosingStock[months[i-1]]
			if !opening.Equal(prev) {
				t.Fatalf("month %s: carry-forward violated, opening=%s prev closing=%s", m, opening, prev)
			}
		}
	}
	if !r.TotalSales.Equal(d(350)) {
		t.Fatalf("expected total sales 350, got %s", r.TotalSales)
	}
}

func TestRecalculate_DirectWarehouseExcludedFromEquationOnly(t *testing.T) {
	months := testMonths()
	row := newTestRow(months, "CALPRO", "ACME", "Direct Ship")
	row.MonthlyOpeningStock[months[0]] = d(500)
	row.MonthlySales[months[0]] = d(120)
	row.MonthlyShipments[months[0]] = []models.ShipmentEntry{
		{ShipmentNumber: "SH-200", Qty: d(80)},
	}

	out, err := Recalculate(months, []*models.StockRow{row}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	r := out[0]
	// Equation inputs zeroed: closing stays at opening.
	if !r.MonthlyClosingStock[months[0]].Equal(d(500)) {
		t.Fatalf("expected closing 500, got %s", r.MonthlyClosingStock[months[0]])
	}
	// Sales remain for reporting.
	if !r.MonthlySales[months[0]].Equal(d(120)) {
		t.Fatalf("expected sales kept at 120, got %s", r.MonthlySales[months[0]])
	}
	if !r.TotalSales.Equal(d(120)) {
		t.Fatalf("expected total sales 120, got %s", r.TotalSales)
	}
}

func TestRecalculate_DirectShipmentRowMirrorsQtyIntoSales(t *testing.T) {
	months := testMonths()
	row := models.NewStockRow(
		months,
		models.Product{ID: "p-1", Name: "CALPRO", Unit: "kg"},
		models.Customer{ID: "c-1", Name: "ACME"},
		models.Warehouse{ID: "w-1", Name: "Direct Shipment"},
		models.RowTypeDirectShipment,
	)
	row.MonthlyDirectShipmentQty[months[0]] = d(75)
	row.MonthlyDirectShipmentQty[months[2]] = d(25)

	out, err := Recalculate(months, []*models.StockRow{row}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	r := out[0]
	if !r.MonthlySales[months[0]].Equal(d(75)) {
		t.Fatalf("expected mirrored sales 75, got %s", r.MonthlySales[months[0]])
	}
	if !r.TotalSales.Equal(d(100)) {
		t.Fatalf("expected total sales 100, got %s", r.TotalSales)
	}
	// Stock equation never moves for a direct shipment row.
	for _, m := range months {
		if !r.MonthlyClosingStock[m].Equal(decimal.Zero) {
			t.Fatalf("month %s: expected flat zero closing, got %s", m, r.MonthlyClosingStock[m])
		}
	}
}

func TestRecalculate_OverrideSeedsFirstMonthOnly(t *testing.T) {
	months := testMonths()
	row := newTestRow(months, "FIN90", "ACME", "MAIN")
	row.MonthlySales[months[0]] = d(200)

	overrides := models.NewOpeningStockOverrideStore()
	overrides.SetRaw("FIN90", "MAIN", months[0], "1,000")
	// Later-month overrides are stored but never read by the chain.
	overrides.SetRaw("FIN90", "MAIN", months[5], "9999")

	out, err := Recalculate(months, []*models.StockRow{row}, overrides)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	r := out[0]
	if !r.MonthlyOpeningStock[months[0]].Equal(d(1000)) {
		t.Fatalf("expected override opening 1000, got %s", r.MonthlyOpeningStock[months[0]])
	}
	if !r.MonthlyClosingStock[months[0]].Equal(d(800)) {
		t.Fatalf("expected closing 800, got %s", r.MonthlyClosingStock[months[0]])
	}
	// Month 5 opening comes from carry-forward, not the ignored override.
	if !r.MonthlyOpeningStock[months[5]].Equal(d(800)) {
		t.Fatalf("expected carry-forward opening 800 at month 5, got %s", r.MonthlyOpeningStock[months[5]])
	}
}

func TestRecalculate_MalformedRowPassesThroughUnchanged(t *testing.T) {
	months := testMonths()
	good := newTestRow(months, "CALPRO", "ACME", "IGL")
	bad := &models.StockRow{
		ID:        "bad-row",
		Product:   models.Product{Name: "CALPRO"},
		Warehouse: models.Warehouse{Name: "IGL"},
		RowType:   models.RowTypeRegular,
		// monthly maps deliberately missing
	}

	out, err := Recalculate(months, []*models.StockRow{good, bad}, nil)
	if err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[1] != bad {
		t.Fatalf("expected malformed row passed through unmodified")
	}
}

func TestRecalculate_InputRowsNotMutated(t *testing.T) {
	months := testMonths()
	row := newTestRow(months, "CALPRO", "ACME", "IGL")
	row.MonthlyOpeningStock[months[0]] = d(100)
	row.MonthlySales[months[0]] = d(30)

	if _, err := Recalculate(months, []*models.StockRow{row}, nil); err != nil {
		t.Fatalf("Recalculate error: %v", err)
	}
	if !row.MonthlyClosingStock[months[0]].Equal(decimal.Zero) {
		t.Fatalf("input row was mutated: closing=%s", row.MonthlyClosingStock[months[0]])
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	months := testMonths()
	row := newTestRow(months, "CALPRO", "ACME", "IGL")
	row.MonthlyOpeningStock[months[0]] = d(105125)
	row.MonthlySales[months[0]] = d(8400)
	row.MonthlyShipments[months[0]] = []models.ShipmentEntry{
		{ShipmentNumber: "SH-001", Qty: d(-36000)},
	}

	once, err := Recalculate(months, []*models.StockRow{row}, nil)
	if err != nil {
		t.Fatalf("first Recalculate error: %v", err)
	}
	twice, err := Recalculate(months, once, nil)
	if err != nil {
		t.Fatalf("second Recalculate error: %v", err)
	}
	for _, m := range months {
		if !once[0].MonthlyClosingStock[m].Equal(twice[0].MonthlyClosingStock[m]) {
			t.Fatalf("month %s: closings differ between runs: %s vs %s",
				m, once[0].MonthlyClosingStock[m], twice[0].MonthlyClosingStock[m])
		}
		if !once[0].MonthlyOpeningStock[m].Equal(twice[0].MonthlyOpeningStock[m]) {
			t.Fatalf("month %s: openings differ between runs: %s vs %s",
				m, once[0].MonthlyOpeningStock[m], twice[0].MonthlyOpeningStock[m])
		}
	}
}
