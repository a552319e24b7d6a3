package analysis

import (
	"testing"

	"github.com/onecore/docintake/internal/core/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.DocType
	}{
		{
			name: "empty text",
			text: "",
			want: domain.DocTypeInformation,
		},
		{
			name: "single keyword is not enough",
			text: "El subtotal de la compra aparece al final.",
			want: domain.DocTypeInformation,
		},
		{
			name: "two distinct keywords",
			text: "Factura proforma\nSubtotal: 100",
			want: domain.DocTypeInvoice,
		},
		{
			name: "repeated keyword counts once",
			text: "subtotal subtotal subtotal",
			want: domain.DocTypeInformation,
		},
		{
			name: "mixed case",
			text: "FACTURA\nIVA 21%",
			want: domain.DocTypeInvoice,
		},
		{
			name: "plain prose",
			text: "Este es un texto cualquiera, sin palabras clave.",
			want: domain.DocTypeInformation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.text); got != tc.want {
				t.Fatalf("Classify() = %q, want %q", got, tc.want)
			}
		})
	}
}
