package service

import "testing"

func TestMultiplier_ZeroSupply(t *testing.T) {
	for _, demand := range []int{0, 1, 5, 100} {
		if got := Multiplier(demand, 0); got != 1.5 {
			t.Errorf("demand=%d supply=0: expected 1.5, got %v", demand, got)
		}
	}
}

func TestMultiplier_Tiers(t *testing.T) {
	testCases := []struct {
		name     string
		demand   int
		supply   int
		expected float64
	}{
		{"no demand", 0, 10, 1.0},
		{"ratio below 0.8", 4, 10, 1.0},
		{"ratio exactly 0.8", 8, 10, 1.0},
		{"ratio just above 0.8", 9, 10, 1.25},
		{"ratio exactly 1.0", 10, 10, 1.25},
		{"ratio above 1.0", 12, 10, 1.5},
		{"ratio exactly 1.5", 15, 10, 1.5},
		{"ratio above 1.5", 18, 10, 1.75},
		{"ratio exactly 2.0", 20, 10, 1.75},
		{"ratio above 2.0", 25, 10, 2.0},
		{"extreme demand", 500, 10, 2.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Multiplier(tc.demand, tc.supply); got != tc.expected {
				t.Errorf("demand=%d supply=%d: expected %v, got %v",
					tc.demand, tc.supply, tc.expected, got)
			}
		})
	}
}

func TestMultiplier_NonDecreasingInDemand(t *testing.T) {
	supply := 10
	prev := 0.0
	for demand := 0; demand <= 50; demand++ {
		got := Multiplier(demand, supply)
		if got < prev {
			t.Fatalf("multiplier decreased at demand=%d: %v -> %v", demand, prev, got)
		}
		prev = got
	}
}
