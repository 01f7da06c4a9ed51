// Package extract turns raw scraped text fragments into typed values.
// Every function here is pure: a value that cannot be parsed comes back
// as absent, never as an error.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Matches "Sep 27, 2025" / "September 27, 2025" or "2025/9/27".
	datePattern = regexp.MustCompile(`([A-Za-z]+ \d{1,2}, \d{4})|(\d{4}/\d{1,2}/\d{1,2})`)

	// Numeric item identifier embedded in an eBay listing URL path.
	itemIDPattern = regexp.MustCompile(`/itm/(\d+)`)

	nonNumeric = regexp.MustCompile(`[^0-9.]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Boilerplate the source rendering injects into titles. Accessibility-only
// text and the "Shop on eBay" placeholder card both show up here.
var titleNoise = []string{
	"Opens in a new window or tab",
	"Shop on eBay",
	"New Listing",
}

// Price parses a human-formatted price string ("$1,234.56", "USD 12 to 15")
// into a dollar amount. Everything that is not a digit or decimal point is
// stripped before parsing; ranges therefore collapse into one number, which
// matches how the listing pages format a single sale price. Returns false
// when the text carries no parseable amount.
func Price(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	cleaned := nonNumeric.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// PriceUSD parses a currency-tagged amount. A non-USD currency is treated
// as absent rather than converted; the pipeline has no exchange rates.
func PriceUSD(value, currency string) (float64, bool) {
	if currency != "" && currency != "USD" {
		return 0, false
	}
	return Price(value)
}

// Date finds the first embedded date in free text and normalizes it to
// YYYY-MM-DD regardless of the source format, so downstream sorting and
// display never depend on which page layout produced the text.
func Date(text string) (string, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return parseMonthDate(m[1])
	}
	return parseSlashDate(m[2])
}

func parseMonthDate(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return "", false
	}
	month, ok := monthNumber(fields[0])
	if !ok {
		return "", false
	}
	day, err := strconv.Atoi(strings.TrimSuffix(fields[1], ","))
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", false
	}
	return formatDate(year, month, day)
}

func parseSlashDate(s string) (string, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", false
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	return formatDate(year, month, day)
}

func formatDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > daysInMonth(year, month) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	}
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 29
	}
	return 28
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

func monthNumber(name string) (int, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[name[:3]]
	if !ok {
		return 0, false
	}
	return m, true
}

// Title strips known rendering boilerplate from a raw title, collapses
// internal whitespace and trims. Applying it to already-clean text is a
// no-op, so callers may run it on either path's titles.
func Title(text string) string {
	for _, noise := range titleNoise {
		text = removeFold(text, noise)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// removeFold removes every case-insensitive occurrence of noise from s.
func removeFold(s, noise string) string {
	lower := strings.ToLower(s)
	needle := strings.ToLower(noise)
	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(needle):]
		lower = lower[i+len(needle):]
	}
}

// ItemID locates the numeric item identifier in a listing URL. When found
// it synthesizes the canonical identifier ("v1|<n>|0", the Browse API form)
// and a tracking-parameter-free canonical URL. A URL without a numeric
// identifier yields ok=false and the record must be discarded.
func ItemID(link string) (id, canonicalURL string, ok bool) {
	m := itemIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", "", false
	}
	return "v1|" + m[1] + "|0", "https://www.ebay.com/itm/" + m[1], true
}
