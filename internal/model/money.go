package model

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as US dollars, e.g. "$1,234.50".
func FormatUSD(d decimal.Decimal) string {
	return money.New(d.Shift(2).Round(0).IntPart(), money.USD).Display()
}

// ParseAmount parses a monetary string such as "$1,234.50" or "(12.00)".
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(cleanAmount(s))
}

func cleanAmount(s string) string {
	out := make([]byte, 0, len(s))
	negative := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c == '.':
			out = append(out, c)
		case c == '-' || c == '(':
			negative = true
		}
	}
	if negative {
		return "-" + string(out)
	}
	return string(out)
}
