package salesorder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLine parses "ITEM|SIZE|QTY" or "ITEM|SIZE|QTY|RATE". SIZE may be empty.
func ParseLine(s string) (LineRequest, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 && len(parts) != 4 {
		return LineRequest{}, fmt.Errorf("%w: line %q: want ITEM|SIZE|QTY[|RATE]", ErrInvalidRequest, s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	line := LineRequest{Item: parts[0], Size: parts[1]}
	qty, err := decimal.NewFromString(parts[2])
	if err != nil {
		return LineRequest{}, fmt.Errorf("%w: line %q: quantity %q is not a number", ErrInvalidRequest, s, parts[2])
	}
	line.Quantity = qty

	if len(parts) == 4 && parts[3] != "" {
		rate, err := decimal.NewFromString(parts[3])
		if err != nil {
			return LineRequest{}, fmt.Errorf("%w: line %q: rate %q is not a number", ErrInvalidRequest, s, parts[3])
		}
		line.Rate = rate
	}
	return line, nil
}
