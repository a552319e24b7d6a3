package domain

// DocType labels the outcome of the keyword classifier.
type DocType string

const (
	DocTypeInvoice     DocType = "invoice"
	DocTypeInformation DocType = "information"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// LineItem is one parsed invoice table row. Quantity is either read directly
// from the line or inferred from unit price and total.
type LineItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// InvoiceFields holds the labeled fields located in an invoice text.
// Missing fields are empty strings, never nulls; callers serialize as-is.
// Total stays the raw string token from the source text (display value),
// while item-level prices are normalized floats.
type InvoiceFields struct {
	Client        string     `json:"client"`
	Vendor        string     `json:"vendor"`
	InvoiceNumber string     `json:"invoice_number"`
	Date          string     `json:"date"`
	Total         string     `json:"total"`
	Items         []LineItem `json:"items"`
}

// InformationFields holds the derived view of a non-invoice document.
type InformationFields struct {
	Description string    `json:"description"`
	Summary     string    `json:"summary"`
	Sentiment   Sentiment `json:"sentiment"`
}

// AnalysisResult is the tagged union returned by the analysis engine.
// Exactly one of the embedded records is set, matching DocType; the
// embedded pointers keep the serialized shape flat.
type AnalysisResult struct {
	DocType       DocType `json:"doc_type"`
	Kind          string  `json:"kind"`
	RawTextLength int     `json:"raw_text_length"`

	*InvoiceFields
	*InformationFields
}
