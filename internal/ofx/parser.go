// Package ofx turns OFX/QFX bank downloads into bank statement documents.
package ofx

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

const dateLayout = "01/02/2006"

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Source describes where an OFX download came from. Holder and Institution
// fill in what the file itself does not say.
type Source struct {
	Name        string
	Holder      string
	Institution string
}

// Parser converts OFX/QFX files into bank statement documents.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files from some banks leave opening tags without a closing bracket
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file and returns one bank statement document
// per account statement it contains. Credit card statements are skipped.
func (p *Parser) ParseFile(ctx context.Context, src Source, reader io.Reader) ([]model.RawDocument, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	institution := strings.TrimSpace(string(resp.Signon.Org))
	if src.Institution != "" {
		institution = src.Institution
	}

	var statements []*ofxgo.StatementResponse
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			statements = append(statements, stmt)
		}
	}

	docs := make([]model.RawDocument, 0, len(statements))
	for _, stmt := range statements {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("OFX parsing interrupted: %w", err)
		}
		doc, err := p.statementDocument(stmt, src, institution, len(statements) > 1)
		if err != nil {
			common.LogWarn("Failed to convert OFX statement", common.Fields{
				"file":    src.Name,
				"account": last4(string(stmt.BankAcctFrom.AcctID)),
				"error":   err.Error(),
			})
			continue
		}
		docs = append(docs, doc)
	}

	if len(resp.CreditCard) > 0 {
		common.LogDebug("Skipped credit card statements in OFX file", common.Fields{
			"file":  src.Name,
			"count": len(resp.CreditCard),
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no bank statements in %s", common.ErrInvalidDocument, src.Name)
	}

	common.LogInfo("Parsed OFX file", common.Fields{
		"file":       src.Name,
		"statements": len(docs),
	})
	return docs, nil
}

// statementDocument converts one bank statement. When a file carries several
// accounts each document gets the account's last four digits appended to its
// identifier.
func (p *Parser) statementDocument(stmt *ofxgo.StatementResponse, src Source, institution string, multiple bool) (model.RawDocument, error) {
	acct := last4(string(stmt.BankAcctFrom.AcctID))
	balance, err := amount(&stmt.BalAmt)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("ledger balance: %w", err)
	}

	fileID := src.Name
	if multiple && acct != "" {
		fileID = fmt.Sprintf("%s#%s", src.Name, acct)
	}

	fields := map[string]string{
		"ending_balance": balance.StringFixed(2),
	}
	if institution != "" {
		fields["institution_name"] = institution
	}
	if kind := accountKind(stmt.BankAcctFrom.AcctType.String()); kind != "" {
		fields["account_type"] = string(kind)
	}
	if acct != "" {
		fields["account_last4"] = acct
	}
	if src.Holder != "" {
		fields["account_holder"] = src.Holder
	}

	doc := model.RawDocument{
		Type:       model.DocumentBankStatement,
		FileID:     fileID,
		Method:     model.MethodOFX,
		Confidence: 1.0,
		Fields:     fields,
	}

	var text strings.Builder
	if src.Holder != "" {
		fmt.Fprintf(&text, "Account holder: %s\n", src.Holder)
	}
	if institution != "" {
		fmt.Fprintf(&text, "%s\n", institution)
	}

	if list := stmt.BankTranList; list != nil {
		doc.Dates = append(doc.Dates,
			model.ExtractedDate{Label: "statement period start", Date: list.DtStart.Time},
			model.ExtractedDate{Label: "statement period end", Date: list.DtEnd.Time},
		)
		fmt.Fprintf(&text, "Statement period %s - %s\n", list.DtStart.Format(dateLayout), list.DtEnd.Format(dateLayout))

		for i := range list.Transactions {
			tx := &list.Transactions[i]
			amt, err := amount(&tx.TrnAmt)
			if err != nil {
				return model.RawDocument{}, fmt.Errorf("transaction %s: %w", tx.FiTID, err)
			}
			name := p.extractMerchantName(*tx)
			doc.Amounts = append(doc.Amounts, model.ExtractedAmount{Label: name, Amount: amt})
			fmt.Fprintf(&text, "%s %s %s\n", tx.DtPosted.Format(dateLayout), name, amt.StringFixed(2))
		}
	}

	doc.Amounts = append(doc.Amounts, model.ExtractedAmount{Label: "ending balance", Amount: balance})
	fmt.Fprintf(&text, "Ending balance %s\n", balance.StringFixed(2))
	doc.Text = text.String()

	return doc, nil
}

// extractMerchantName tries to get a clean payee name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// MM/DD at the start
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// accountKind maps an OFX ACCTTYPE to an account kind. Credit lines map to
// nothing and are classified by transaction count downstream.
func accountKind(acctType string) model.AccountKind {
	switch strings.ToUpper(acctType) {
	case "CHECKING":
		return model.AccountChecking
	case "SAVINGS", "MONEYMRKT", "CD":
		return model.AccountSavings
	}
	return ""
}

func amount(a *ofxgo.Amount) (decimal.Decimal, error) {
	return decimal.NewFromString(a.FloatString(2))
}

func last4(acctID string) string {
	acctID = strings.TrimSpace(acctID)
	if len(acctID) <= 4 {
		return acctID
	}
	return acctID[len(acctID)-4:]
}
