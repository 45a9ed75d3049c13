package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var symbols = map[string]string{
	"VND": "₫",
	"USD": "$",
	"EUR": "€",
	"JPY": "¥",
}

// Formatter renders decimal amounts as display strings for one locale and currency.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	scale   int
}

// NewFormatter builds a formatter for a BCP 47 locale and an ISO 4217 code.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		scale:   scale,
	}, nil
}

// MustFormatter is NewFormatter for compile-time constants.
func MustFormatter(locale, code string) *Formatter {
	f, err := NewFormatter(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// Number renders the amount with locale grouping and the currency's minor digits.
func (f *Formatter) Number(amount decimal.Decimal) string {
	rounded := amount.Round(int32(f.scale))
	return f.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(f.scale)))
}

// Amount renders a single price, e.g. "1.250.000 ₫".
func (f *Formatter) Amount(amount decimal.Decimal) string {
	return f.Number(amount) + " " + f.symbol()
}

// Range renders a price range; equal bounds collapse to Amount.
func (f *Formatter) Range(min, max decimal.Decimal) string {
	if max.IsZero() {
		max = min
	}
	if min.Equal(max) {
		return f.Amount(min)
	}
	return fmt.Sprintf("%s - %s %s", f.Number(min), f.Number(max), f.unit.String())
}

// Code returns the ISO 4217 code.
func (f *Formatter) Code() string {
	return f.unit.String()
}

func (f *Formatter) symbol() string {
	if sym, ok := symbols[f.unit.String()]; ok {
		return sym
	}
	return f.unit.String()
}
