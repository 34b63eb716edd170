package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Warehouse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ShipmentEntry struct {
	ShipmentNumber string          `json:"shipment_number"`
	Qty            decimal.Decimal `json:"qty"`
}

// GroupKey identifies a consolidation group. Customer is deliberately not
// part of the key: all customers' rows for the same product+warehouse share
// one stock chain.
type GroupKey struct {
	ProductName   string `json:"product_name"`
	WarehouseName string `json:"warehouse_name"`
}

func NewGroupKey(productName, warehouseName string) GroupKey {
	return GroupKey{
		ProductName:   strings.ToLower(strings.TrimSpace(productName)),
		WarehouseName: strings.ToLower(strings.TrimSpace(warehouseName)),
	}
}

// StockRow is one (product, customer, warehouse) combination, or a direct
// shipment pseudo-row. Closing stock is derived; it is never authoritative
// on its own.
type StockRow struct {
	ID        string    `json:"id"`
	Product   Product   `json:"product"`
	Customer  Customer  `json:"customer"`
	Warehouse Warehouse `json:"warehouse"`
	RowType   RowType   `json:"row_type"`

	MonthlySales        map[MonthKey]decimal.Decimal `json:"monthly_sales"`
	MonthlyShipments    map[MonthKey][]ShipmentEntry `json:"monthly_shipments"`
	MonthlyOpeningStock map[MonthKey]decimal.Decimal `json:"monthly_opening_stock"`
	MonthlyClosingStock map[MonthKey]decimal.Decimal `json:"monthly_closing_stock"`

	// Direct shipment rows only; qty is mirrored into MonthlySales before
	// the stock equation runs.
	MonthlyDirectShipmentQty  map[MonthKey]decimal.Decimal `json:"monthly_direct_shipment_qty,omitempty"`
	MonthlyDirectShipmentText map[MonthKey]string          `json:"monthly_direct_shipment_text,omitempty"`

	TotalSales decimal.Decimal `json:"total_sales"`
}

// NewStockRow builds a row with every monthly map initialized for every month
// of the sequence, so downstream code never sees a half-constructed row.
func NewStockRow(months []MonthKey, product Product, customer Customer, warehouse Warehouse, rowType RowType) *StockRow {
	row := &StockRow{
		ID:                  uuid.NewString(),
		Product:             product,
		Customer:            customer,
		Warehouse:           warehouse,
		RowType:             rowType,
		MonthlySales:        make(map[MonthKey]decimal.Decimal, len(months)),
		MonthlyShipments:    make(map[MonthKey][]ShipmentEntry, len(months)),
		MonthlyOpeningStock: make(map[MonthKey]decimal.Decimal, len(months)),
		MonthlyClosingStock: make(map[MonthKey]decimal.Decimal, len(months)),
	}
	if rowType == RowTypeDirectShipment {
		row.MonthlyDirectShipmentQty = make(map[MonthKey]decimal.Decimal, len(months))
		row.MonthlyDirectShipmentText = make(map[MonthKey]string, len(months))
	}
	for _, m := range months {
		row.MonthlySales[m] = decimal.Zero
		row.MonthlyShipments[m] = nil
		row.MonthlyOpeningStock[m] = decimal.Zero
		row.MonthlyClosingStock[m] = decimal.Zero
		if rowType == RowTypeDirectShipment {
			row.MonthlyDirectShipmentQty[m] = decimal.Zero
			row.MonthlyDirectShipmentText[m] = ""
		}
	}
	return row
}

// HasMonthlyMaps reports whether all four monthly maps exist. Rows built via
// NewStockRow always pass; rows deserialized from older snapshots may not.
func (r *StockRow) HasMonthlyMaps() bool {
	return r.MonthlySales != nil &&
		r.MonthlyShipments != nil &&
		r.MonthlyOpeningStock != nil &&
		r.MonthlyClosingStock != nil
}

// ShipmentTotal sums the month's shipment quantities. Net-negative totals are
// valid: returns can exceed inbound in a month.
func (r *StockRow) ShipmentTotal(m MonthKey) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range r.MonthlyShipments[m] {
		total = total.Add(entry.Qty)
	}
	return total
}

func (r *StockRow) GroupKey() GroupKey {
	return NewGroupKey(r.Product.Name, r.Warehouse.Name)
}

// Clone deep-copies the row so recalculation never mutates a caller's
// snapshot in place.
func (r *StockRow) Clone() *StockRow {
	if r == nil {
		return nil
	}
	out := *r
	out.MonthlySales = cloneDecimalMap(r.MonthlySales)
	out.MonthlyOpeningStock = cloneDecimalMap(r.MonthlyOpeningStock)
	out.MonthlyClosingStock = cloneDecimalMap(r.MonthlyClosingStock)
	out.MonthlyDirectShipmentQty = cloneDecimalMap(r.MonthlyDirectShipmentQty)
	if r.MonthlyShipments != nil {
		out.MonthlyShipments = make(map[MonthKey][]ShipmentEntry, len(r.MonthlyShipments))
		for m, entries := range r.MonthlyShipments {
			if entries == nil {
				out.MonthlyShipments[m] = nil
				continue
			}
			copied := make([]ShipmentEntry, len(entries))
			copy(copied, entries)
			out.MonthlyShipments[m] = copied
		}
	}
	if r.MonthlyDirectShipmentText != nil {
		out.MonthlyDirectShipmentText = make(map[MonthKey]string, len(r.MonthlyDirectShipmentText))
		for m, v := range r.MonthlyDirectShipmentText {
			out.MonthlyDirectShipmentText[m] = v
		}
	}
	return &out
}

func cloneDecimalMap(src map[MonthKey]decimal.Decimal) map[MonthKey]decimal.Decimal {
	if src == nil {
		return nil
	}
	out := make(map[MonthKey]decimal.Decimal, len(src))
	for m, v := range src {
		out[m] = v
	}
	return out
}

// CloneRows deep-copies a full snapshot.
func CloneRows(rows []*StockRow) []*StockRow {
	out := make([]*StockRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Clone())
	}
	return out
}
