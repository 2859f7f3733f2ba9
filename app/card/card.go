// Package card holds the card-number helpers used by the acquirer adapters:
// brand detection, Luhn checksum and expiry parsing.
package card

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	BrandVisa      = "Visa"
	BrandMaster    = "Master"
	BrandElo       = "Elo"
	BrandHipercard = "Hipercard"
	BrandHiper     = "Hiper"
	BrandAura      = "Aura"
	BrandAmex      = "Amex"
	BrandDiners    = "Diners"
	BrandDiscover  = "Discover"
	BrandJCB       = "JCB"
)

var (
	ErrInvalidNumber = errors.New("invalid card number")
	ErrInvalidExpiry = errors.New("invalid card expiration date")
)

type brandMatcher struct {
	brand   string
	pattern *regexp.Regexp
}

// Order matters: domestic networks share BIN ranges with Visa, Master and
// Discover, so they must be tested first.
var brandMatchers = []brandMatcher{
	{BrandElo, regexp.MustCompile(`^(4011(78|79)|43(1274|8935)|45(1416|7393|763[12])|50(4175|6699|67[0-7][0-9]|9000)|627780|63(6297|6368)|650(0[3-5]|4[0-9]|5[0-3]|9[0-7])|6516(52)|6550(00|21))`)},
	{BrandHipercard, regexp.MustCompile(`^(606282|3841)`)},
	{BrandHiper, regexp.MustCompile(`^637(095|568|599|609|612)`)},
	{BrandAura, regexp.MustCompile(`^50`)},
	{BrandAmex, regexp.MustCompile(`^3[47]`)},
	{BrandDiners, regexp.MustCompile(`^3(0[0-5]|[68])`)},
	{BrandJCB, regexp.MustCompile(`^35(2[89]|[3-8])`)},
	{BrandDiscover, regexp.MustCompile(`^6(011|5|4[4-9])`)},
	{BrandMaster, regexp.MustCompile(`^(5[1-5]|2(22[1-9]|2[3-9][0-9]|[3-6][0-9]{2}|7[01][0-9]|720))`)},
	{BrandVisa, regexp.MustCompile(`^4`)},
}

var nonDigits = regexp.MustCompile(`\D`)

// Digits strips everything but digits (spaces, dashes, dots).
func Digits(value string) string {
	return nonDigits.ReplaceAllString(value, "")
}

// DetectBrand returns the acquirer brand name for a card number. Unknown
// prefixes fall back to Visa so checkout is never blocked on detection.
func DetectBrand(number string) string {
	digits := Digits(number)
	for _, m := range brandMatchers {
		if m.pattern.MatchString(digits) {
			return m.brand
		}
	}
	return BrandVisa
}

// Luhn reports whether the number passes the mod-10 checksum.
func Luhn(number string) bool {
	digits := Digits(number)
	if len(digits) < 2 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidNumberLength checks the 13 to 19 digit range accepted by the acquirers.
func ValidNumberLength(number string) bool {
	n := len(Digits(number))
	return n >= 13 && n <= 19
}

// Expiry is a card expiration month/year.
type Expiry struct {
	Month int
	Year  int
}

// ParseExpiry accepts MM/YY, MM/YYYY, MMYY and MMYYYY.
func ParseExpiry(value string) (Expiry, error) {
	value = strings.TrimSpace(value)
	var month, year string
	if i := strings.IndexAny(value, "/-"); i >= 0 {
		month, year = value[:i], value[i+1:]
	} else {
		digits := Digits(value)
		if len(digits) != 4 && len(digits) != 6 {
			return Expiry{}, ErrInvalidExpiry
		}
		month, year = digits[:2], digits[2:]
	}

	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return Expiry{}, ErrInvalidExpiry
	}
	year = strings.TrimSpace(year)
	y, err := strconv.Atoi(year)
	if err != nil {
		return Expiry{}, ErrInvalidExpiry
	}
	switch len(year) {
	case 2:
		y += 2000
	case 4:
	default:
		return Expiry{}, ErrInvalidExpiry
	}

	return Expiry{Month: m, Year: y}, nil
}

// Expired reports whether the card is past its last valid month at now.
func (e Expiry) Expired(now time.Time) bool {
	if e.Year != now.Year() {
		return e.Year < now.Year()
	}
	return e.Month < int(now.Month())
}

// MMYY formats the expiry as Pagar.me expects it.
func (e Expiry) MMYY() string {
	return fmt.Sprintf("%02d%02d", e.Month, e.Year%100)
}

// MMYYYY formats the expiry as Cielo expects it.
func (e Expiry) MMYYYY() string {
	return fmt.Sprintf("%02d/%04d", e.Month, e.Year)
}

// ValidCVV checks the 3 or 4 digit security code.
func ValidCVV(cvv string) bool {
	cvv = strings.TrimSpace(cvv)
	if len(cvv) < 3 || len(cvv) > 4 {
		return false
	}
	return Digits(cvv) == cvv
}

// Mask keeps the first six and last four digits.
func Mask(number string) string {
	digits := Digits(number)
	if len(digits) < 10 {
		return strings.Repeat("*", len(digits))
	}
	return digits[:6] + strings.Repeat("*", len(digits)-10) + digits[len(digits)-4:]
}
