package workflow

import "testing"

func TestIsDirectShipment(t *testing.T) {
	cases := []struct {
		name     string
		expected bool
	}{
		{"", true},
		{"   ", true},
		{"Direct Shipment", true},
		{"Direct Ship", true},
		{"direct", true},
		{"DIRECTS", true},
		{"DS", true},
		{"ds warehouse", true},
		{"W-DS", true},
		{"Shipment Hub", true},
		{"WOODS", false},
		{"woods", false},
		{"  Woods  ", false},
		{"IGL", false},
		{"MAIN", false},
		// "ds" must match whole words only, never as a substring.
		{"REDSTONE", false},
		{"GOODSHED", false},
		{"Directory", false},
	}
	for _, tc := range cases {
		if got := IsDirectShipment(tc.name); got != tc.expected {
			t.Fatalf("IsDirectShipment(%q) expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
