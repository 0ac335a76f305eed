package model

import "testing"

func TestToCents(t *testing.T) {
	cases := []struct {
		price float64
		want  int64
	}{
		{45.50, 4550},
		{0.01, 1},
		{99.999, 10000}, // rounds to the nearest cent
		{100, 10000},
		{19.99, 1999},
		{0.105, 11},
	}
	for _, tc := range cases {
		if got := ToCents(tc.price); got != tc.want {
			t.Errorf("ToCents(%v) = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestPriceRoundTrip(t *testing.T) {
	q := Quote{PriceCents: 4550}
	if q.Price() != 45.50 {
		t.Fatalf("Price() = %v, want 45.50", q.Price())
	}
	if ToCents(q.Price()) != 4550 {
		t.Fatalf("cents should round-trip through Price()")
	}
}

func TestValidRequestStatus(t *testing.T) {
	for _, s := range RequestStatuses {
		if !ValidRequestStatus(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "OPEN", "deleted", "unknown"} {
		if ValidRequestStatus(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
