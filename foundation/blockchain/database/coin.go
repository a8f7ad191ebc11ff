package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// unitDecimals is the number of decimal places in one coin.
const unitDecimals = 8

// ErrInvalidAmount is returned when a coin amount can't be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseCoins converts a decimal coin amount such as "0.5" into units. More
// than eight decimal places is rejected since it can't be represented.
func ParseCoins(s string) (uint64, error) {
	whole, frac, hasFrac := strings.Cut(strings.TrimSpace(s), ".")

	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if len(frac) > unitDecimals {
		return 0, fmt.Errorf("%w: %q: precision finer than %d decimals", ErrInvalidAmount, s, unitDecimals)
	}

	coins, err := strconv.ParseUint(whole, 10, 64)
	if err != nil || coins > ^uint64(0)/Unit {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, ErrValueOverflow)
	}

	var units uint64
	if hasFrac {
		units, _ = strconv.ParseUint(frac+strings.Repeat("0", unitDecimals-len(frac)), 10, 64)
	}

	total, err := AddValues(coins*Unit, units)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}

	return total, nil
}

// FormatCoins renders units as a decimal coin amount with trailing zeros
// trimmed.
func FormatCoins(units uint64) string {
	whole := units / Unit
	frac := units % Unit

	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*d", unitDecimals, frac), "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
