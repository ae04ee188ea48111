package pricing

import "testing"

func TestPrice(t *testing.T) {
	t.Parallel()

	if got, err := Price("gravel"); err != nil || got != 899000 {
		t.Fatalf("Price(gravel) = %d, %v", got, err)
	}
	if got, err := Price("paseo"); err != nil || got != 600000 {
		t.Fatalf("Price(paseo) = %d, %v", got, err)
	}
	if _, err := Price("mtb"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestGroupUnitPrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		category string
		n        int
		want     int64
	}{
		{category: "gravel", n: 1, want: 899000},
		{category: "gravel", n: 4, want: 899000},
		{category: "gravel", n: 5, want: 854000},  // 854050 floored
		{category: "gravel", n: 10, want: 809000}, // 809100 floored
		{category: "paseo", n: 5, want: 570000},
		{category: "paseo", n: 12, want: 540000},
	}

	for _, tc := range cases {
		got, err := GroupUnitPrice(tc.category, tc.n)
		if err != nil {
			t.Fatalf("GroupUnitPrice(%s, %d): %v", tc.category, tc.n, err)
		}
		if got != tc.want {
			t.Fatalf("GroupUnitPrice(%s, %d) = %d, want %d", tc.category, tc.n, got, tc.want)
		}
	}

	if _, err := GroupUnitPrice("gravel", 0); err == nil {
		t.Fatal("expected error for zero group size")
	}
	if _, err := GroupUnitPrice("mtb", 5); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()

	title, err := Title("gravel")
	if err != nil {
		t.Fatalf("Title(gravel): %v", err)
	}
	if title == "" {
		t.Fatal("empty title")
	}
	if _, err := Title("mtb"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
