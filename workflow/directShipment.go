package workflow

import (
	"regexp"
	"strings"
)

// Whole-word match only. An earlier substring match on "ds" misclassified
// warehouse names like "WOODS" as direct shipment.
var directShipmentPattern = regexp.MustCompile(`\b(direct shipment|direct ship|directs|direct|shipment|ds)\b`)

// IsDirectShipment reports whether a warehouse name designates direct
// shipment, i.e. sales fulfilled without passing through tracked warehouse
// inventory. Direct-shipment rows are excluded from the stock equation.
//
// A blank name counts as direct shipment.
//
// The literal name "WOODS" is never direct shipment, regardless of the
// word-boundary rule. This carve-out exists because live sheets carry a
// warehouse named WOODS that the old substring bug used to swallow; it is a
// special case for that one name, not a general rule.
func IsDirectShipment(warehouseName string) bool {
	name := strings.ToLower(strings.TrimSpace(warehouseName))
	if name == "" {
		return true
	}
	if name == "woods" {
		return false
	}
	return directShipmentPattern.MatchString(name)
}
