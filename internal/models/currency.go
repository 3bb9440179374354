package models

import (
	"strconv"
	"strings"
)

// Currency identifies the denomination of a transaction.
type Currency string

const (
	CurrencySoles   Currency = "soles"
	CurrencyDolares Currency = "dolares"
	CurrencyPesos   Currency = "pesos"
)

// DefaultCurrency applies when a message carries no currency cue.
const DefaultCurrency = CurrencySoles

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencySoles, CurrencyDolares, CurrencyPesos:
		return true
	}
	return false
}

// Symbol returns the display prefix used in replies.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyDolares, CurrencyPesos:
		return "$"
	default:
		return "S/"
	}
}

// Format renders an amount with the currency symbol, e.g. "S/45.5".
func (c Currency) Format(amount float64) string {
	return c.Symbol() + strconv.FormatFloat(amount, 'f', -1, 64)
}

// ParseCurrency maps free-form names and ISO codes to a Currency. Anything
// unrecognised yields the default.
func ParseCurrency(raw string) Currency {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dolares", "dólares", "dolar", "dólar", "usd", "$":
		return CurrencyDolares
	case "pesos", "peso", "clp", "mxn", "cop", "ars":
		return CurrencyPesos
	default:
		return CurrencySoles
	}
}
