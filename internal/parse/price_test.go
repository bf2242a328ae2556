package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractOCRPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"total price label", "TOTAL PRICE: 2499.00", "₹2499.00", true},
		{"total with symbol", "Total: ₹ 1,499.00", "₹1499.00", true},
		{"bare symbol amount", "paid ₹ 349.50 by card", "₹349.50", true},
		{"gross value label", "Gross Value: 999", "₹999", true},
		{"zero rejected", "Total: ₹0.00", "", false},
		{"no amount", "no money mentioned here", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := extractOCRPrice(tc.text)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSelectLayoutPriceKeywordAnchored(t *testing.T) {
	t.Parallel()

	got, ok := selectLayoutPrice("G r a n d T o t a l : 1 4 9 9 . 0 0")
	require.True(t, ok)
	require.Equal(t, "₹1499.00", got)
}

func TestSelectLayoutPriceBounds(t *testing.T) {
	t.Parallel()

	// Below both windows.
	_, ok := selectLayoutPrice("T o t a l : 5 . 0 0")
	require.False(t, ok)

	// Above the ceiling.
	_, ok = selectLayoutPrice("T o t a l : 6 0 0 0 0 0 . 0 0")
	require.False(t, ok)
}

func TestSelectLayoutPriceFallbackLastCandidate(t *testing.T) {
	t.Parallel()

	// No keyword anywhere: the last in-bounds candidate wins on position.
	got, ok := selectLayoutPrice("ref 1 2 3 . 4 5 then 9 9 9 . 9 9 end")
	require.True(t, ok)
	require.Equal(t, "₹999.99", got)
}

func TestSelectLayoutPriceFallbackCommaHeuristic(t *testing.T) {
	t.Parallel()

	// The last candidate is out of bounds; the comma marks the earlier
	// one as money.
	got, ok := selectLayoutPrice("item 1,499.00 qty 2 0 . 0 0")
	require.True(t, ok)
	require.Equal(t, "₹1499.00", got)
}

func TestSelectLayoutPriceFallbackCurrencyMarker(t *testing.T) {
	t.Parallel()

	got, ok := selectLayoutPrice("R s 4 9 9 . 0 0 weight 2 0 . 0 0")
	require.True(t, ok)
	require.Equal(t, "₹499.00", got)
}

func TestCleanAmount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1499.00", cleanAmount("1 4 9 9 . 0 0"))
	require.Equal(t, "1499.00", cleanAmount("1,4 9 9.0 0"))
}
