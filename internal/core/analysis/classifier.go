package analysis

import (
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
)

// invoiceKeywords are the fixed invoice markers of the source corpus
// (Spanish business documents with occasional English captions).
var invoiceKeywords = []string{
	"factura",
	"factura proforma",
	"invoice",
	"subtotal",
	"iva",
	"rfc",
	"cuit",
	"total a pagar",
	"número de factura",
	"numero de factura",
	"no. factura",
}

// Classify labels text as invoice or general information. Each keyword
// counts once regardless of repetitions; two distinct hits are required
// so that a document merely mentioning "total" is not misread as an
// invoice. Deliberately low precision, high recall.
func Classify(text string) domain.DocType {
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	if score >= 2 {
		return domain.DocTypeInvoice
	}
	return domain.DocTypeInformation
}
