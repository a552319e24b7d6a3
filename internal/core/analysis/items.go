package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
)

// lineMatcher is one pattern strategy of the line-item cascade: report
// whether a single physical line is an item row and, if so, produce it.
type lineMatcher interface {
	name() string
	match(line string) (domain.LineItem, bool)
}

// Tagged row with an explicit quantity: "Producto 1 2 100 200,00",
// tolerating stray OCR punctuation between the identifier and the
// numeric fields (one known layout emits "~", "-" and similar there).
var taggedQtyPattern = regexp.MustCompile(
	`(?i)^\s*(?P<code>producto)\s*(?P<desc>\d+)\s*[^\d]*(?P<qty>\d+)\s+(?P<price>\d+(?:[.,]\d*)?)\s+(?P<total>\d+(?:[.,]\d*)?)\s*$`,
)

// Well-formed tabular row: code, free-text description, quantity, unit
// price and total with at most two fraction digits.
var tabularPattern = regexp.MustCompile(
	`^\s*(?P<code>\w+)\s+(?P<desc>[\w\s\-~.]+?)\s+(?P<qty>\d+)\s+(?P<price>\d+(?:[.,]\d{1,2})?)\s+(?P<total>\d+(?:[.,]\d{1,2})?)\s*$`,
)

// Degraded tagged row where OCR dropped the quantity: "Producto 2 ~ 150 600,00".
var taggedNoQtyPattern = regexp.MustCompile(
	`(?i)^\s*(?P<code>producto)\s*(?P<desc>\d+)\s*[^\d]+(?P<price>\d+(?:[.,]\d*)?)\s+(?P<total>\d+(?:[.,]\d*)?)\s*$`,
)

type taggedWithQuantity struct{}

func (taggedWithQuantity) name() string { return "tagged_with_quantity" }

func (taggedWithQuantity) match(line string) (domain.LineItem, bool) {
	m := taggedQtyPattern.FindStringSubmatch(line)
	if m == nil {
		return domain.LineItem{}, false
	}
	qty, err := strconv.Atoi(m[3])
	if err != nil {
		return domain.LineItem{}, false
	}
	return domain.LineItem{
		Code:        strings.TrimSpace(m[1]),
		Description: strings.TrimSpace(m[2]),
		Quantity:    qty,
		UnitPrice:   NormalizeAmount(m[4]),
		Total:       NormalizeAmount(m[5]),
	}, true
}

type genericTabular struct{}

func (genericTabular) name() string { return "generic_tabular" }

func (genericTabular) match(line string) (domain.LineItem, bool) {
	m := tabularPattern.FindStringSubmatch(line)
	if m == nil {
		return domain.LineItem{}, false
	}
	qty, err := strconv.Atoi(m[3])
	if err != nil {
		return domain.LineItem{}, false
	}
	return domain.LineItem{
		Code:        strings.TrimSpace(m[1]),
		Description: strings.Trim(m[2], " -~"),
		Quantity:    qty,
		UnitPrice:   NormalizeAmount(m[4]),
		Total:       NormalizeAmount(m[5]),
	}, true
}

type taggedWithoutQuantity struct {
	engine *Engine
}

func (taggedWithoutQuantity) name() string { return "tagged_without_quantity" }

func (s taggedWithoutQuantity) match(line string) (domain.LineItem, bool) {
	m := taggedNoQtyPattern.FindStringSubmatch(line)
	if m == nil {
		return domain.LineItem{}, false
	}
	price := NormalizeAmount(m[3])
	total := NormalizeAmount(m[4])

	qty, ok := s.engine.InferQuantity(price, total)
	if !ok {
		// Inference rejected the ratio: unparseable noise, not an error.
		return domain.LineItem{}, false
	}
	return domain.LineItem{
		Code:        strings.TrimSpace(m[1]),
		Description: strings.TrimSpace(m[2]),
		Quantity:    qty,
		UnitPrice:   price,
		Total:       total,
	}, true
}

// ParseItems recovers invoice line items, one per matched physical line,
// preserving source order. Each non-blank line is tried against the
// matcher cascade in priority order; the first match wins and lines
// matching nothing are dropped silently.
func (e *Engine) ParseItems(text string) []domain.LineItem {
	var items []domain.LineItem

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		for _, matcher := range e.matchers {
			if item, ok := matcher.match(line); ok {
				items = append(items, item)
				break
			}
		}
	}
	return items
}
