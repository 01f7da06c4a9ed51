package extract

import "testing"

func TestPrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain dollars", "$1,234.56", 1234.56, true},
		{"no symbol", "55.99", 55.99, true},
		{"currency prefix", "USD 12.00", 12.00, true},
		{"thousands separator", "$2,000", 2000, true},
		{"range collapses", "$10 to $15", 1015, true},
		{"empty", "", 0, false},
		{"no digits", "Best Offer", 0, false},
		{"only symbols", "$ .", 0, false},
		{"two decimal points", "1.2.3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Price(tt.input)
			if ok != tt.ok {
				t.Fatalf("Price(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Price(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPriceUSD(t *testing.T) {
	if _, ok := PriceUSD("12.50", "EUR"); ok {
		t.Error("non-USD currency should be absent, not converted")
	}
	if _, ok := PriceUSD("12.50", "CAD"); ok {
		t.Error("CAD price should be absent")
	}
	got, ok := PriceUSD("$12.50", "USD")
	if !ok || got != 12.5 {
		t.Errorf("PriceUSD($12.50, USD) = %v, %v; want 12.5, true", got, ok)
	}
	// Untagged values pass through as USD.
	if _, ok := PriceUSD("$9.99", ""); !ok {
		t.Error("untagged price should parse")
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"month name", "Sold Sep 27, 2025", "2025-09-27", true},
		{"full month name", "January 5, 2024", "2024-01-05", true},
		{"slash form", "2025/9/27", "2025-09-27", true},
		{"embedded in noise", "Sold Item  Jan 5, 2024 ended", "2024-01-05", true},
		{"no date", "Brand New", "", false},
		{"empty", "", "", false},
		{"bogus month", "Frobuary 5, 2024", "", false},
		{"day out of range", "Feb 30, 2025", "", false},
		{"leap day", "Feb 29, 2024", "2024-02-29", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Date(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"boilerplate suffix", "Charizard PSA 10 Opens in a new window or tab", "Charizard PSA 10"},
		{"placeholder card", "Shop on eBay", ""},
		{"collapses whitespace", "Pikachu   Base  Set", "Pikachu Base Set"},
		{"mixed case noise", "Mewtwo opens in a new window or tab #150", "Mewtwo #150"},
		{"already clean", "Blastoise #2 Holo", "Blastoise #2 Holo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Title(tt.input)
			if got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
			}
			// Cleaning must be idempotent.
			if again := Title(got); again != got {
				t.Errorf("Title not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestItemID(t *testing.T) {
	id, canonical, ok := ItemID("https://www.ebay.com/itm/111111?hash=abc&_trkparms=xyz")
	if !ok {
		t.Fatal("expected identifier from /itm/ URL")
	}
	if id != "v1|111111|0" {
		t.Errorf("id = %q, want v1|111111|0", id)
	}
	if canonical != "https://www.ebay.com/itm/111111" {
		t.Errorf("canonical = %q, want tracking-free URL", canonical)
	}

	if _, _, ok := ItemID("https://www.ebay.com/sch/i.html?_nkw=pikachu"); ok {
		t.Error("search URL should not yield an identifier")
	}
	if _, _, ok := ItemID(""); ok {
		t.Error("empty URL should not yield an identifier")
	}
}
