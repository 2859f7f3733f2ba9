package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmountToCents converts a decimal amount in currency units ("50",
// "50.5", "50,50") into integer cents. More than two decimal places is
// rejected rather than rounded.
func ParseAmountToCents(raw json.Number) (int64, error) {
	value := strings.TrimSpace(raw.String())
	if value == "" {
		return 0, ErrInvalidAmount
	}
	value = strings.Replace(value, ",", ".", 1)

	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	units, fraction, _ := strings.Cut(value, ".")
	if units == "" {
		units = "0"
	}
	if len(fraction) > 2 {
		return 0, ErrInvalidAmount
	}
	fraction += strings.Repeat("0", 2-len(fraction))

	whole, err := strconv.ParseInt(units, 10, 64)
	if err != nil || whole > (math.MaxInt64-99)/100 {
		return 0, ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(fraction, 10, 64)
	if err != nil || strings.ContainsAny(units+fraction, "+-") {
		return 0, ErrInvalidAmount
	}

	total := whole*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// FormatCents renders cents as a plain decimal ("50.50").
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
