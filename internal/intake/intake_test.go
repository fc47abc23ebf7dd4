package intake

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlManifest = `
documents:
  - file: income/acme/w2-2024.pdf
    type: W-2
    fields:
      employer_name: Acme Corp
      employee_name: John Smith
      wages_tips: 78000
    text: |
      Employee: John Smith
  - file: utilities/coned-jan.pdf
    type: utility_bill
    method: LLM
    confidence: 0.85
    amounts:
      - label: amount due
        amount: "$142.17"
    dates:
      - label: due date
        date: 2025-01-20
ofx:
  - path: statements/chase.qfx
    holder: Mary Smith
`

const jsonManifest = `{
  "documents": [
    {"file": "transcripts/2022.pdf", "type": "irs_transcript",
     "amounts": [{"label": "balance due", "amount": "12,500.00"}],
     "dates": [{"label": "assessed", "date": "04/15/2023"}]}
  ]
}`

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>SAVINGS
</BANKACCTFROM>
<LEDGERBAL>
<BALAMT>3200.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(yamlManifest))
	require.NoError(t, err)

	docs, err := m.RawDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 2)

	w2 := docs[0]
	assert.Equal(t, model.DocumentW2, w2.Type)
	assert.Equal(t, "78000", w2.Fields["wages_tips"])
	assert.Equal(t, "Employee: John Smith\n", w2.Text)
	assert.Equal(t, model.MethodRegex, w2.ExtractionMethod())

	bill := docs[1]
	assert.Equal(t, model.DocumentUtilityBill, bill.Type)
	assert.Equal(t, model.MethodLLM, bill.Method)
	assert.InDelta(t, 0.85, bill.Confidence, 1e-9)
	require.Len(t, bill.Amounts, 1)
	assert.True(t, decimal.RequireFromString("142.17").Equal(bill.Amounts[0].Amount))
	require.Len(t, bill.Dates, 1)
	assert.Equal(t, 20, bill.Dates[0].Date.Day())

	require.Len(t, m.OFX, 1)
	assert.Equal(t, "Mary Smith", m.OFX[0].Holder)
}

func TestParseManifestJSON(t *testing.T) {
	m, err := ParseManifest([]byte(jsonManifest))
	require.NoError(t, err)

	docs, err := m.RawDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocumentIRSTranscript, docs[0].Type)
	assert.True(t, decimal.NewFromInt(12500).Equal(docs[0].Amounts[0].Amount))
	assert.Equal(t, 2023, docs[0].Dates[0].Date.Year())
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"empty", ""},
		{"unknown key", "documents:\n  - file: a.pdf\n    colour: red\n"},
		{"bad amount", "documents:\n  - file: a.pdf\n    amounts:\n      - label: x\n        amount: n/a\n"},
		{"bad date", "documents:\n  - file: a.pdf\n    dates:\n      - label: x\n        date: someday\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.manifest))
			if err == nil {
				_, err = m.RawDocuments()
			}
			assert.ErrorIs(t, err, common.ErrInvalidDocument)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "case", "manifest.yaml")
	writeFile(t, manifest, yamlManifest)
	writeFile(t, filepath.Join(dir, "case", "statements", "chase.qfx"), sampleOFX)
	extra := filepath.Join(dir, "transcripts.json")
	writeFile(t, extra, jsonManifest)

	docs, err := NewLoader().Load(context.Background(), manifest, extra)
	require.NoError(t, err)
	require.Len(t, docs, 4)

	bank := docs[2]
	assert.Equal(t, model.DocumentBankStatement, bank.Type)
	assert.Equal(t, "statements/chase.qfx", bank.FileID)
	assert.Equal(t, "Mary Smith", bank.Fields["account_holder"])
	assert.Equal(t, "savings", bank.Fields["account_type"])
	assert.Equal(t, "3200.00", bank.Fields["ending_balance"])

	assert.Equal(t, model.DocumentIRSTranscript, docs[3].Type)
}

func TestLoadDirectOFX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.ofx")
	writeFile(t, path, sampleOFX)

	docs, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].FileID)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "scan.pdf")
	writeFile(t, pdf, "%PDF")

	_, err := NewLoader().Load(context.Background(), pdf)
	assert.ErrorIs(t, err, common.ErrUnsupportedInput)

	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "ofx:\n  - path: nowhere.qfx\n")
	_, err = NewLoader().Load(context.Background(), broken)
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLoader().Load(ctx, pdf)
	assert.ErrorIs(t, err, context.Canceled)
}
