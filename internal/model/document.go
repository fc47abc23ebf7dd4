// Package model defines the core domain models used throughout the application.
package model

import (
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of financial document an extraction came from.
type DocumentType string

// Document type constants.
const (
	DocumentW2                  DocumentType = "w2"
	DocumentPayStub             DocumentType = "pay_stub"
	DocumentBankStatement       DocumentType = "bank_statement"
	DocumentRetirementStatement DocumentType = "retirement_statement"
	DocumentUtilityBill         DocumentType = "utility_bill"
	DocumentMortgageStatement   DocumentType = "mortgage_statement"
	DocumentPropertyTax         DocumentType = "property_tax"
	DocumentInsuranceStatement  DocumentType = "insurance_statement"
	DocumentIRSTranscript       DocumentType = "irs_transcript"
	Document1099                DocumentType = "1099"
	DocumentVehicleRegistration DocumentType = "vehicle_registration"
	DocumentAutoLoanStatement   DocumentType = "auto_loan_statement"
	DocumentUnknown             DocumentType = "unknown"
)

// DocumentTypes lists every known document type in a stable order.
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentW2,
		DocumentPayStub,
		DocumentBankStatement,
		DocumentRetirementStatement,
		DocumentUtilityBill,
		DocumentMortgageStatement,
		DocumentPropertyTax,
		DocumentInsuranceStatement,
		DocumentIRSTranscript,
		Document1099,
		DocumentVehicleRegistration,
		DocumentAutoLoanStatement,
		DocumentUnknown,
	}
}

// ParseDocumentType maps an upstream label to a DocumentType.
// Unrecognized labels map to DocumentUnknown.
func ParseDocumentType(s string) DocumentType {
	label := strings.ToLower(strings.TrimSpace(s))
	label = strings.NewReplacer("-", "_", " ", "_").Replace(label)
	switch label {
	case "form_1099", "1099_misc", "1099_nec":
		return Document1099
	case "paystub":
		return DocumentPayStub
	case "w_2":
		return DocumentW2
	}
	for _, t := range DocumentTypes() {
		if string(t) == label {
			return t
		}
	}
	return DocumentUnknown
}

// Extraction methods recorded in provenance entries.
const (
	MethodRegex      = "regex"
	MethodLLM        = "llm"
	MethodOFX        = "ofx"
	MethodAggregated = "aggregated"
	MethodDefault    = "default"
	MethodDeclared   = "declared"
)

// ExtractedAmount is a labeled monetary amount found in a document.
type ExtractedAmount struct {
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
	Label  string          `json:"label" yaml:"label"`
}

// ExtractedDate is a labeled date found in a document.
type ExtractedDate struct {
	Date  time.Time `json:"date" yaml:"date"`
	Label string    `json:"label" yaml:"label"`
}

// RawDocument is one already-extracted document as produced upstream.
// Fields is the untyped extraction output; it is converted to a typed field
// set before any aggregation logic reads it.
type RawDocument struct {
	Fields     map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Type       DocumentType      `json:"type" yaml:"type"`
	FileID     string            `json:"file" yaml:"file"`
	Text       string            `json:"text,omitempty" yaml:"text,omitempty"`
	Method     string            `json:"method,omitempty" yaml:"method,omitempty"`
	Amounts    []ExtractedAmount `json:"amounts,omitempty" yaml:"amounts,omitempty"`
	Dates      []ExtractedDate   `json:"dates,omitempty" yaml:"dates,omitempty"`
	Confidence float64           `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// FileName returns the last path element of the document identifier.
func (d RawDocument) FileName() string {
	if d.FileID == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(d.FileID, "\\", "/"))
}

// Field returns a trimmed field value and whether it was present and non-empty.
func (d RawDocument) Field(key string) (string, bool) {
	if d.Fields == nil {
		return "", false
	}
	v, ok := d.Fields[key]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// ExtractionMethod returns the extraction method, defaulting to regex.
func (d RawDocument) ExtractionMethod() string {
	if d.Method == "" {
		return MethodRegex
	}
	return d.Method
}

// IsEmpty reports whether the document carries no usable content at all.
func (d RawDocument) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == "" && len(d.Fields) == 0 && len(d.Amounts) == 0 && len(d.Dates) == 0
}
