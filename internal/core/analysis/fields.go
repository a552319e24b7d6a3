package analysis

import (
	"regexp"
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
)

const labelWindow = 100

// Explicit "número de factura" caption followed by an optional separator
// and an alphanumeric token.
var invoiceNumberPattern = regexp.MustCompile(
	`(?i)n[uú]mero\s+de\s+factura[^\S\r\n]*[:#\-]?\s*([A-Z0-9\-/.]+)`,
)

// Shorter caption variants: "n° factura", "nro. factura", "factura n°".
var invoiceNumberShortPattern = regexp.MustCompile(
	`(?i)(?:n[°ºo]\s*factura|nro\.?\s*factura|factura\s*n[°ºo]?)[^\S\r\n]*[:#\-]?\s*([A-Z0-9\-/.]+)`,
)

// Date preceded by an issue/invoice/receipt caption within 15 characters.
var labeledDatePattern = regexp.MustCompile(
	`(?i)(fecha\s+(?:emisi[oó]n|factura|comprobante)[^\d]{0,15})(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
)

var bareDatePattern = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)

// Single line holding "<client name> Empresa de <activity>...": a leading
// capitalized run followed by the vendor phrase.
var clientVendorLinePattern = regexp.MustCompile(
	`(?i)(?P<cli>[A-ZÁÉÍÓÚÑ][^ \n]+(?:\s+[A-ZÁÉÍÓÚÑa-záéíóúñü]+)*)\s+(?P<prov>Empresa\s+de[^\n]+)`,
)

var numberTokenPattern = regexp.MustCompile(`\d[\d.,]*`)

// findAfterAny locates the first candidate label (tried in list order,
// case-insensitively) and returns the first non-empty trimmed line inside
// a bounded window after it, stripped of leading caption punctuation.
func findAfterAny(text, lower string, labels []string, window int) string {
	for _, label := range labels {
		idx := strings.Index(lower, label)
		if idx == -1 {
			continue
		}
		start := idx + len(label)
		end := start + window
		if end > len(text) {
			end = len(text)
		}
		for _, line := range strings.Split(text[start:end], "\n") {
			line = strings.Trim(line, " :;-•\t")
			if line != "" {
				return line
			}
		}
	}
	return ""
}

// ExtractInvoiceFields locates the labeled invoice fields in noisy text.
// Each field is searched independently; a field that cannot be found is
// returned as an empty string, never as an error.
func (e *Engine) ExtractInvoiceFields(text string) domain.InvoiceFields {
	lower := strings.ToLower(text)

	client := findAfterAny(text, lower, []string{"cliente", "client"}, labelWindow)
	if client == "" {
		client = findAfterAny(text, lower, []string{"razón social", "razon social"}, labelWindow)
	}

	vendor := findAfterAny(text, lower, []string{"emisor", "proveedor", "vendedor"}, labelWindow)
	if vendor == "" {
		vendor = findAfterAny(text, lower, []string{"razón social", "razon social"}, labelWindow)
	}

	// One known layout puts "<client> Empresa de <activity>" on a single
	// line with no captions at all. Only fills fields still empty; a value
	// found by label search is never overwritten.
	if (client == "" || vendor == "") && strings.Contains(lower, "empresa de") {
		for _, rawLine := range strings.Split(text, "\n") {
			if !strings.Contains(strings.ToLower(rawLine), "empresa de") {
				continue
			}
			m := clientVendorLinePattern.FindStringSubmatch(rawLine)
			if m != nil {
				if client == "" {
					client = strings.TrimSpace(m[1])
				}
				if vendor == "" {
					vendor = strings.TrimSpace(m[2])
				}
				break
			}
		}
	}

	return domain.InvoiceFields{
		Client:        client,
		Vendor:        vendor,
		InvoiceNumber: extractInvoiceNumber(text, lower),
		Date:          extractDate(text),
		Total:         extractTotal(text),
		Items:         e.ParseItems(text),
	}
}

func extractInvoiceNumber(text, lower string) string {
	if m := invoiceNumberPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := invoiceNumberShortPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return findAfterAny(text, lower, []string{
		"n° factura", "no. factura", "nro factura", "n° comprobante",
	}, 40)
}

func extractDate(text string) string {
	if m := labeledDatePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	if m := bareDatePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractTotal scans for lines mentioning "total" and keeps the last
// numeric token on the last such line, so a final total row beats earlier
// subtotal mentions. Falls back to the last numeric token anywhere.
// The value stays the raw source token: it is a display string, unlike
// item-level prices which are normalized.
func extractTotal(text string) string {
	total := ""
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), "total") {
			continue
		}
		nums := numberTokenPattern.FindAllString(line, -1)
		if len(nums) > 0 {
			total = strings.TrimSpace(nums[len(nums)-1])
		}
	}
	if total == "" {
		nums := numberTokenPattern.FindAllString(text, -1)
		if len(nums) > 0 {
			total = strings.TrimSpace(nums[len(nums)-1])
		}
	}
	return total
}
