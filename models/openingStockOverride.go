package models

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// OverrideKey is name-keyed on purpose: the sheet UI addresses overrides by
// product and warehouse names, not IDs. Renames therefore have to migrate
// entries explicitly (RenameProduct / RenameWarehouse) or the override is
// orphaned.
type OverrideKey struct {
	ProductName   string
	WarehouseName string
	Month         MonthKey
}

func NewOverrideKey(productName, warehouseName string, month MonthKey) OverrideKey {
	return OverrideKey{
		ProductName:   strings.ToLower(strings.TrimSpace(productName)),
		WarehouseName: strings.ToLower(strings.TrimSpace(warehouseName)),
		Month:         month,
	}
}

// OpeningStockOverrideStore holds manually entered opening-stock values that
// seed a group's chain. Only first-month overrides affect consolidation;
// later-month entries are stored as display hints and never read back by the
// calculation (the chain always carries forward).
type OpeningStockOverrideStore struct {
	mu      sync.RWMutex
	entries map[OverrideKey]decimal.Decimal
}

func NewOpeningStockOverrideStore() *OpeningStockOverrideStore {
	return &OpeningStockOverrideStore{
		entries: make(map[OverrideKey]decimal.Decimal),
	}
}

// Set stores an override value. A stored value is always meaningful,
// including an explicit zero set through this typed entry point.
func (s *OpeningStockOverrideStore) Set(productName, warehouseName string, month MonthKey, value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[NewOverrideKey(productName, warehouseName, month)] = value
}

// SetRaw applies the sheet's legacy string semantics: empty, "0" and the old
// "-1" placeholder all mean "no override" and clear the entry. Everything
// else is parsed with the usual fallback-to-zero quantity rules; a value that
// parses to zero also clears.
func (s *OpeningStockOverrideStore) SetRaw(productName, warehouseName string, month MonthKey, raw string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "0" || trimmed == "-1" {
		s.Clear(productName, warehouseName, month)
		return
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(trimmed, ",", ""))
	if err != nil || value.IsZero() {
		s.Clear(productName, warehouseName, month)
		return
	}
	s.Set(productName, warehouseName, month, value)
}

// Get returns the override as an explicit optional. Valid=false means no
// override is set; there is no sentinel value.
func (s *OpeningStockOverrideStore) Get(productName, warehouseName string, month MonthKey) decimal.NullDecimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[NewOverrideKey(productName, warehouseName, month)]
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: v, Valid: true}
}

func (s *OpeningStockOverrideStore) Clear(productName, warehouseName string, month MonthKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, NewOverrideKey(productName, warehouseName, month))
}

// RenameProduct migrates every override entry from the old product name to
// the new one, preserving values month by month.
func (s *OpeningStockOverrideStore) RenameProduct(oldName, newName string) {
	s.renameWhere(func(k OverrideKey) (OverrideKey, bool) {
		if k.ProductName != strings.ToLower(strings.TrimSpace(oldName)) {
			return k, false
		}
		return NewOverrideKey(newName, k.WarehouseName, k.Month), true
	})
}

// RenameWarehouse migrates every override entry from the old warehouse name
// to the new one.
func (s *OpeningStockOverrideStore) RenameWarehouse(oldName, newName string) {
	s.renameWhere(func(k OverrideKey) (OverrideKey, bool) {
		if k.WarehouseName != strings.ToLower(strings.TrimSpace(oldName)) {
			return k, false
		}
		return NewOverrideKey(k.ProductName, newName, k.Month), true
	})
}

func (s *OpeningStockOverrideStore) renameWhere(remap func(OverrideKey) (OverrideKey, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := make(map[OverrideKey]decimal.Decimal)
	for k, v := range s.entries {
		if nk, ok := remap(k); ok {
			moved[nk] = v
			delete(s.entries, k)
		}
	}
	for k, v := range moved {
		s.entries[k] = v
	}
}

// Snapshot copies all entries, for persistence and tests.
func (s *OpeningStockOverrideStore) Snapshot() map[OverrideKey]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[OverrideKey]decimal.Decimal, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *OpeningStockOverrideStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
