// Package intake reads already-extracted documents from manifests and bank
// downloads.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"gopkg.in/yaml.v3"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
}

// Manifest is the on-disk list of extracted documents. JSON manifests are
// read through the same decoder.
type Manifest struct {
	Documents []Entry     `yaml:"documents"`
	OFX       []OFXSource `yaml:"ofx"`
}

// Entry is one extracted document. Amounts and dates stay strings until
// conversion so that no precision is lost to floats.
type Entry struct {
	Fields     map[string]string `yaml:"fields"`
	Type       string            `yaml:"type"`
	File       string            `yaml:"file"`
	Text       string            `yaml:"text"`
	Method     string            `yaml:"method"`
	Amounts    []AmountEntry     `yaml:"amounts"`
	Dates      []DateEntry       `yaml:"dates"`
	Confidence float64           `yaml:"confidence"`
}

// AmountEntry is a labeled amount.
type AmountEntry struct {
	Label  string `yaml:"label"`
	Amount string `yaml:"amount"`
}

// DateEntry is a labeled date.
type DateEntry struct {
	Label string `yaml:"label"`
	Date  string `yaml:"date"`
}

// OFXSource points at an OFX/QFX download, relative to the manifest.
type OFXSource struct {
	Path        string `yaml:"path"`
	Holder      string `yaml:"holder"`
	Institution string `yaml:"institution"`
}

// ParseManifest decodes a YAML or JSON manifest. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty manifest", common.ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	return &m, nil
}

// RawDocuments converts the manifest entries in order.
func (m *Manifest) RawDocuments() ([]model.RawDocument, error) {
	docs := make([]model.RawDocument, 0, len(m.Documents))
	for i, e := range m.Documents {
		doc, err := e.RawDocument()
		if err != nil {
			return nil, fmt.Errorf("document %d (%s): %w", i+1, e.File, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// RawDocument converts one entry.
func (e Entry) RawDocument() (model.RawDocument, error) {
	doc := model.RawDocument{
		Type:       model.ParseDocumentType(e.Type),
		FileID:     strings.TrimSpace(e.File),
		Text:       e.Text,
		Method:     strings.ToLower(strings.TrimSpace(e.Method)),
		Confidence: e.Confidence,
		Fields:     e.Fields,
	}

	for _, a := range e.Amounts {
		amt, err := model.ParseAmount(a.Amount)
		if err != nil {
			return model.RawDocument{}, fmt.Errorf("%w: amount %q for %q", common.ErrInvalidDocument, a.Amount, a.Label)
		}
		doc.Amounts = append(doc.Amounts, model.ExtractedAmount{Label: a.Label, Amount: amt})
	}

	for _, d := range e.Dates {
		at, err := parseDate(d.Date)
		if err != nil {
			return model.RawDocument{}, fmt.Errorf("%w: date %q for %q", common.ErrInvalidDocument, d.Date, d.Label)
		}
		doc.Dates = append(doc.Dates, model.ExtractedDate{Label: d.Label, Date: at})
	}

	return doc, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
