package analysis

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeAmount converts a locale-formatted amount to a float:
//
//	"1.308,80" -> 1308.80
//	"600,00"   -> 600.00
//	"1451"     -> 1451.0
//
// The source locale uses '.' for grouping and ',' for decimals; the
// inverse convention is out of scope. Malformed or empty input yields 0.
func NormalizeAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// InferQuantity recovers a missing item quantity from a unit price and a
// line total. The ratio must sit within the configured tolerance of an
// integer (OCR digit noise) and inside [1, QuantityMax]; otherwise the
// second return is false and the caller must drop the line.
func (e *Engine) InferQuantity(unitPrice, total float64) (int, bool) {
	if unitPrice <= 0 {
		return 0, false
	}
	raw := total / unitPrice
	rounded := int(math.Round(raw))
	if math.Abs(raw-float64(rounded)) < e.cfg.QuantityTolerance &&
		rounded >= 1 && rounded <= e.cfg.QuantityMax {
		return rounded, true
	}
	return 0, false
}
