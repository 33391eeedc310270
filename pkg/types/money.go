package types

import "github.com/shopspring/decimal"

// FormatCents renders an integer minor-unit amount for outbound text, e.g.
// FormatCents(2800, "KES") == "KES 28.00". All price arithmetic stays in
// integer cents; decimal is only used at the display boundary.
func FormatCents(cents int, currency string) string {
	amount := decimal.NewFromInt(int64(cents)).Shift(-2)
	if currency == "" {
		return amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}
