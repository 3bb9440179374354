package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	apperrors "sofia/internal/errors"
)

// ParseAmount coerces a JSON number, Go number or numeric string into a
// positive float. Strings may carry a currency prefix ("S/ 45.50", "$20")
// and a decimal comma ("45,50").
func ParseAmount(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, invalidAmount(v)
		}
		f = parsed
	case string:
		parsed, err := parseAmountString(n)
		if err != nil {
			return 0, invalidAmount(v)
		}
		f = parsed
	case nil:
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is required")
	default:
		return 0, invalidAmount(v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	return f, nil
}

var thousandsComma = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)

func parseAmountString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"S/", "s/", "$", "USD", "PEN"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSpace(s)
	switch {
	case thousandsComma.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1 && !strings.Contains(s, "."):
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}

func invalidAmount(v any) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("amount %v is not a number", v))
}
