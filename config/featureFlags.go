package config

import (
	"os"
	"strings"
)

// StrictRowValidation upgrades the defensive skip of rows missing their
// monthly maps into a hard recalculation error. Off by default: a
// partially-constructed row passes through unchanged.
//
// Set via env:
// - STRICT_ROW_VALIDATION=true
func StrictRowValidation() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_ROW_VALIDATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// RemoteSalesMirror enables the remote system-of-record pull: authoritative
// per-(product,warehouse) monthly sales totals replace locally entered sales
// before recalculation.
//
// Set via env:
// - REMOTE_SALES_MIRROR=true
func RemoteSalesMirror() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REMOTE_SALES_MIRROR")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
