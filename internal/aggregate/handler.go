package aggregate

import (
	"fmt"

	"github.com/Veraticus/oic-ledger/internal/identity"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Handler merges one attributed document into the household.
// Returning an error marks the document as failed without stopping the run.
type Handler interface {
	Apply(c *Context) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(c *Context) error

// Apply calls f.
func (f HandlerFunc) Apply(c *Context) error {
	return f(c)
}

// Context is the per-document view handed to a Handler.
type Context struct {
	Household   *model.Household
	agg         *Aggregator
	Attribution identity.Attribution
	fields      fieldReader
	Doc         model.RawDocument
}

// Person returns the profile the document is attributed to.
func (c *Context) Person() *model.PersonProfile {
	return c.Household.Person(c.Attribution.Owner)
}

// OwnerPrefix names the person in provenance field paths.
func (c *Context) OwnerPrefix() string {
	if c.Attribution.Owner == model.OwnerSpouse && c.Household.Spouse != nil {
		return "spouse"
	}
	return "taxpayer"
}

// Warn records a warning on the household.
func (c *Context) Warn(format string, args ...any) {
	c.Household.Warn(fmt.Sprintf(format, args...))
}

// Record appends a provenance entry for a value taken from the document.
// Confidence is capped by the document's own extraction confidence.
func (c *Context) Record(path string, value decimal.Decimal, confidence float64, raw string) {
	c.RecordText(path, value.StringFixed(2), confidence, raw)
}

// RecordText appends a provenance entry for a categorical value.
func (c *Context) RecordText(path, value string, confidence float64, raw string) {
	if c.Doc.Confidence > 0 && c.Doc.Confidence < confidence {
		confidence = c.Doc.Confidence
	}
	c.agg.record(model.ProvenanceEntry{
		FieldPath:  path,
		Value:      value,
		SourceFile: c.Doc.FileName(),
		RawText:    raw,
		Method:     c.Doc.ExtractionMethod(),
		Confidence: confidence,
	})
}

func defaultHandlers() map[model.DocumentType]Handler {
	return map[model.DocumentType]Handler{
		model.DocumentW2:                  HandlerFunc(applyW2),
		model.DocumentPayStub:             HandlerFunc(applyPayStub),
		model.DocumentBankStatement:       HandlerFunc(applyBankStatement),
		model.DocumentRetirementStatement: HandlerFunc(applyRetirement),
		model.DocumentUtilityBill:         HandlerFunc(applyUtility),
		model.DocumentMortgageStatement:   HandlerFunc(applyMortgage),
		model.DocumentPropertyTax:         HandlerFunc(applyPropertyTax),
		model.DocumentInsuranceStatement:  HandlerFunc(applyInsurance),
		model.DocumentIRSTranscript:       HandlerFunc(applyTranscript),
		model.Document1099:                HandlerFunc(apply1099),
		model.DocumentVehicleRegistration: HandlerFunc(applyVehicle),
		model.DocumentAutoLoanStatement:   HandlerFunc(applyVehicle),
	}
}

// maxInto raises *dst to v and reports whether it changed.
func maxInto(dst *decimal.Decimal, v decimal.Decimal) bool {
	if v.GreaterThan(*dst) {
		*dst = v
		return true
	}
	return false
}
