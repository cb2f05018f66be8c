// Package ofx reads OFX/QFX bank and credit card statements and turns their
// lines into bookings.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
)

// Categories assigned to imported lines.
const (
	CategoryInterest      = "Investment"
	CategoryFee           = "Other Expense"
	CategoryUncategorized = "Uncategorized"
)

// amountScale is the number of decimals kept when converting OFX amounts.
const amountScale = 6

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An opening tag alone on its line with no closing bracket.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// StatementKind tells bank and credit card statements apart.
type StatementKind string

// Statement kinds.
const (
	KindBank       StatementKind = "bank"
	KindCreditCard StatementKind = "credit_card"
)

// Line is one statement entry. Amount keeps the statement's sign:
// negative for money leaving the account.
type Line struct {
	Date        time.Time
	Amount      decimal.Decimal
	FITID       string
	TrnType     string
	Description string
}

// Statement groups the lines reported for one institution account.
type Statement struct {
	AccountID string
	Kind      StatementKind
	Lines     []Line
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of bare tags
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file and returns its statements.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []Statement

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		st := Statement{AccountID: string(stmt.BankAcctFrom.AcctID), Kind: KindBank}
		if stmt.BankTranList != nil {
			st.Lines = p.convertLines(stmt.BankTranList.Transactions, st.AccountID)
		}
		statements = append(statements, st)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		st := Statement{AccountID: string(stmt.CCAcctFrom.AcctID), Kind: KindCreditCard}
		if stmt.BankTranList != nil {
			st.Lines = p.convertLines(stmt.BankTranList.Transactions, st.AccountID)
		}
		statements = append(statements, st)
	}

	slog.Info("parsed OFX file",
		"statements", len(statements),
		"lines", CountLines(statements))

	return statements, nil
}

func (p *Parser) convertLines(txns []ofxgo.Transaction, accountID string) []Line {
	lines := make([]Line, 0, len(txns))
	for _, ofxTx := range txns {
		line, err := p.convertLine(ofxTx)
		if err != nil {
			slog.Warn("skipping statement line",
				"account", accountID,
				"fitid", string(ofxTx.FiTID),
				"error", err)
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func (p *Parser) convertLine(ofxTx ofxgo.Transaction) (Line, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(amountScale))
	if err != nil {
		return Line{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsZero() {
		return Line{}, fmt.Errorf("zero amount")
	}

	trnType := ofxTx.TrnType.String()
	description := extractDescription(ofxTx)
	if description == "" {
		description = trnType
	}

	return Line{
		Date:        ofxTx.DtPosted.Time.UTC(),
		Amount:      amount,
		FITID:       string(ofxTx.FiTID),
		TrnType:     trnType,
		Description: description,
	}, nil
}

// extractDescription tries to get a clean counterparty name from OFX data.
func extractDescription(tx ofxgo.Transaction) string {
	// PAYEE is usually the cleanest
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && (name == "" || isGenericDescription(name)) {
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

	// Leading "MM/DD " dates
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// CountLines returns the number of lines across statements.
func CountLines(statements []Statement) int {
	n := 0
	for _, st := range statements {
		n += len(st.Lines)
	}
	return n
}

// Category maps an OFX transaction type to a category name.
func Category(trnType string) string {
	switch trnType {
	case ofxgo.TrnTypeInt.String():
		return CategoryInterest
	case ofxgo.TrnTypeFee.String():
		return CategoryFee
	default:
		return CategoryUncategorized
	}
}

// Booking converts the line into a ledger booking under division.
func (l Line) Booking(division model.Division) ledger.CreateTransactionInput {
	typ := model.TypeIncome
	if l.Amount.IsNegative() {
		typ = model.TypeExpense
	}
	date := l.Date
	return ledger.CreateTransactionInput{
		Date:        &date,
		Amount:      l.Amount.Abs(),
		Type:        typ,
		Description: l.Description,
		Category:    Category(l.TrnType),
		Division:    division,
	}
}

// Bookings converts every line of every statement, in file order.
func Bookings(statements []Statement, division model.Division) []ledger.CreateTransactionInput {
	inputs := make([]ledger.CreateTransactionInput, 0, CountLines(statements))
	for _, st := range statements {
		for _, line := range st.Lines {
			inputs = append(inputs, line.Booking(division))
		}
	}
	return inputs
}
