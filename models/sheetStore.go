package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockRowRecord is the persisted shape of a StockRow. Monthly maps are
// stored as JSON columns: the snapshot is replaced whole on every save, so
// there is nothing to query inside them.
type StockRowRecord struct {
	ID            string  `gorm:"primaryKey;size:36"`
	SheetId       string  `gorm:"index;size:36;not null"`
	Position      int     `gorm:"not null"`
	ProductId     string  `gorm:"size:36;not null"`
	ProductName   string  `gorm:"size:200;not null"`
	ProductUnit   string  `gorm:"size:50"`
	CustomerId    string  `gorm:"size:36"`
	CustomerName  string  `gorm:"size:200"`
	WarehouseId   string  `gorm:"size:36"`
	WarehouseName string  `gorm:"size:200"`
	RowType       RowType `gorm:"size:20;not null"`

	MonthlySales              string `gorm:"type:json"`
	MonthlyShipments          string `gorm:"type:json"`
	MonthlyOpeningStock       string `gorm:"type:json"`
	MonthlyClosingStock       string `gorm:"type:json"`
	MonthlyDirectShipmentQty  string `gorm:"type:json"`
	MonthlyDirectShipmentText string `gorm:"type:json"`

	TotalSales decimal.Decimal `gorm:"type:decimal(24,6);not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StockRowRecord) TableName() string { return "stock_rows" }

// OpeningStockOverrideRecord persists one override entry.
type OpeningStockOverrideRecord struct {
	ID            int             `gorm:"primaryKey"`
	SheetId       string          `gorm:"index;size:36;not null"`
	ProductName   string          `gorm:"size:200;not null"`
	WarehouseName string          `gorm:"size:200;not null"`
	Month         MonthKey        `gorm:"size:7;not null"`
	Value         decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (OpeningStockOverrideRecord) TableName() string { return "opening_stock_overrides" }

func AutoMigrateSheetTables(db *gorm.DB) error {
	return db.AutoMigrate(&StockRowRecord{}, &OpeningStockOverrideRecord{})
}

// SheetStore loads and replaces full sheet snapshots. Saves are always a
// single-transaction delete+insert; a snapshot is never partially merged.
type SheetStore struct {
	db *gorm.DB
}

func NewSheetStore(db *gorm.DB) *SheetStore {
	return &SheetStore{db: db}
}

func (s *SheetStore) LoadRows(ctx context.Context, sheetId string) ([]*StockRow, error) {
	var records []StockRowRecord
	err := s.db.WithContext(ctx).
		Where("sheet_id = ?", sheetId).
		Order("position, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	rows := make([]*StockRow, 0, len(records))
	for i := range records {
		row, err := records[i].toStockRow()
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %s: %w", sheetId, records[i].ID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SheetStore) ReplaceRows(ctx context.Context, sheetId string, rows []*StockRow) error {
	records := make([]StockRowRecord, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		rec, err := newStockRowRecord(sheetId, i, row)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sheet_id = ?", sheetId).Delete(&StockRowRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

func (s *SheetStore) LoadOverrides(ctx context.Context, sheetId string) (*OpeningStockOverrideStore, error) {
	var records []OpeningStockOverrideRecord
	err := s.db.WithContext(ctx).
		Where("sheet_id = ?", sheetId).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	store := NewOpeningStockOverrideStore()
	for _, rec := range records {
		store.Set(rec.ProductName, rec.WarehouseName, rec.Month, rec.Value)
	}
	return store, nil
}

func (s *SheetStore) ReplaceOverrides(ctx context.Context, sheetId string, store *OpeningStockOverrideStore) error {
	entries := store.Snapshot()
	records := make([]OpeningStockOverrideRecord, 0, len(entries))
	for k, v := range entries {
		records = append(records, OpeningStockOverrideRecord{
			SheetId:       sheetId,
			ProductName:   k.ProductName,
			WarehouseName: k.WarehouseName,
			Month:         k.Month,
			Value:         v,
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sheet_id = ?", sheetId).Delete(&OpeningStockOverrideRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

func newStockRowRecord(sheetId string, position int, row *StockRow) (StockRowRecord, error) {
	rec := StockRowRecord{
		ID:            row.ID,
		SheetId:       sheetId,
		Position:      position,
		ProductId:     row.Product.ID,
		ProductName:   row.Product.Name,
		ProductUnit:   row.Product.Unit,
		CustomerId:    row.Customer.ID,
		CustomerName:  row.Customer.Name,
		WarehouseId:   row.Warehouse.ID,
		WarehouseName: row.Warehouse.Name,
		RowType:       row.RowType,
		TotalSales:    row.TotalSales,
	}
	var err error
	if rec.MonthlySales, err = marshalJSONColumn(row.MonthlySales); err != nil {
		return rec, err
	}
	if rec.MonthlyShipments, err = marshalJSONColumn(row.MonthlyShipments); err != nil {
		return rec, err
	}
	if rec.MonthlyOpeningStock, err = marshalJSONColumn(row.MonthlyOpeningStock); err != nil {
		return rec, err
	}
	if rec.MonthlyClosingStock, err = marshalJSONColumn(row.MonthlyClosingStock); err != nil {
		return rec, err
	}
	if rec.MonthlyDirectShipmentQty, err = marshalJSONColumn(row.MonthlyDirectShipmentQty); err != nil {
		return rec, err
	}
	if rec.MonthlyDirectShipmentText, err = marshalJSONColumn(row.MonthlyDirectShipmentText); err != nil {
		return rec, err
	}
	return rec, nil
}

func (rec *StockRowRecord) toStockRow() (*StockRow, error) {
	row := &StockRow{
		ID:         rec.ID,
		Product:    Product{ID: rec.ProductId, Name: rec.ProductName, Unit: rec.ProductUnit},
		Customer:   Customer{ID: rec.CustomerId, Name: rec.CustomerName},
		Warehouse:  Warehouse{ID: rec.WarehouseId, Name: rec.WarehouseName},
		RowType:    rec.RowType,
		TotalSales: rec.TotalSales,
	}
	if err := unmarshalJSONColumn(rec.MonthlySales, &row.MonthlySales); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(rec.MonthlyShipments, &row.MonthlyShipments); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(rec.MonthlyOpeningStock, &row.MonthlyOpeningStock); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(rec.MonthlyClosingStock, &row.MonthlyClosingStock); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(rec.MonthlyDirectShipmentQty, &row.MonthlyDirectShipmentQty); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(rec.MonthlyDirectShipmentText, &row.MonthlyDirectShipmentText); err != nil {
		return nil, err
	}
	return row, nil
}

func marshalJSONColumn(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalJSONColumn[T any](raw string, dest *T) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dest)
}
