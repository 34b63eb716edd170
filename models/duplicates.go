package models

import "strings"

// DuplicateWarning flags rows sharing a (product, customer) combination.
// Duplicates are not prevented, only surfaced; the consolidation math sums
// them like any other rows.
type DuplicateWarning struct {
	ProductName  string   `json:"product_name"`
	CustomerName string   `json:"customer_name"`
	RowIDs       []string `json:"row_ids"`
}

func DetectDuplicateRows(rows []*StockRow) []DuplicateWarning {
	type pairKey struct {
		product  string
		customer string
	}
	byPair := make(map[pairKey][]*StockRow)
	order := make([]pairKey, 0)
	for _, r := range rows {
		if r == nil || r.RowType != RowTypeRegular {
			continue
		}
		k := pairKey{
			product:  strings.ToLower(strings.TrimSpace(r.Product.Name)),
			customer: strings.ToLower(strings.TrimSpace(r.Customer.Name)),
		}
		if _, seen := byPair[k]; !seen {
			order = append(order, k)
		}
		byPair[k] = append(byPair[k], r)
	}

	warnings := make([]DuplicateWarning, 0)
	for _, k := range order {
		group := byPair[k]
		if len(group) < 2 {
			continue
		}
		ids := make([]string, 0, len(group))
		for _, r := range group {
			ids = append(ids, r.ID)
		}
		warnings = append(warnings, DuplicateWarning{
			ProductName:  group[0].Product.Name,
			CustomerName: group[0].Customer.Name,
			RowIDs:       ids,
		})
	}
	return warnings
}
