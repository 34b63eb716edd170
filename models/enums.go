package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type RowType string

const (
	RowTypeRegular        RowType = "Regular"
	RowTypeDirectShipment RowType = "DirectShipment"
)

func (t RowType) Valid() bool {
	return t == RowTypeRegular || t == RowTypeDirectShipment
}

func (t RowType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid row type %q", string(t))
	}
	return string(t), nil
}

func (t *RowType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = RowType(v)
	case []byte:
		*t = RowType(v)
	default:
		return errors.New("row type must be string")
	}
	if !t.Valid() {
		return fmt.Errorf("invalid row type %q", string(*t))
	}
	return nil
}

type EditField string

const (
	EditFieldSales             EditField = "Sales"
	EditFieldOpeningStock      EditField = "OpeningStock"
	EditFieldShipments         EditField = "Shipments"
	EditFieldDirectShipmentQty EditField = "DirectShipmentQty"
)

func (f EditField) Valid() bool {
	switch f {
	case EditFieldSales, EditFieldOpeningStock, EditFieldShipments, EditFieldDirectShipmentQty:
		return true
	}
	return false
}
