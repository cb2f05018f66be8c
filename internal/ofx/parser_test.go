package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/model"
)

const checkingOFX = `OFXHEADER:100
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
<DTSERVER>20240630120000[0:GMT]
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
<BANKID>021000021
<ACCTID>55501234
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240601000000[0:GMT]
<DTEND>20240630000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240603120000[0:GMT]
<TRNAMT>-64.20
<FITID>J2406031
<NAME>POS PURCHASE CORNER GROCER
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240605120000[0:GMT]
<TRNAMT>2500.00
<FITID>J2406051
<NAME>PAYMENT
<MEMO>ACME PAYROLL JUNE
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240630120000[0:GMT]
<TRNAMT>1.37
<FITID>J2406301
<NAME>INTEREST PAID
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20240630120000[0:GMT]
<TRNAMT>-5.00
<FITID>J2406302
<NAME>MONTHLY SERVICE FEE
</STMTTRN>
<STMTTRN>
<TRNTYPE>OTHER
<DTPOSTED>20240630120000[0:GMT]
<TRNAMT>0.00
<FITID>J2406303
<NAME>BALANCE INQUIRY
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>3120.17
<DTASOF>20240630120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const cardOFX = `OFXHEADER:100
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
<DTSERVER>20240630120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4000123412341234
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240601000000[0:GMT]
<DTEND>20240630000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240612120000[0:GMT]
<TRNAMT>-39.90
<FITID>C2406121
<NAME>06/12 CITY FUEL 221
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-39.90
<DTASOF>20240630120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantKind    StatementKind
		wantAccount string
		wantLines   int
		wantErr     bool
	}{
		{name: "bank statement", data: checkingOFX, wantKind: KindBank, wantAccount: "55501234", wantLines: 4},
		{name: "credit card statement", data: cardOFX, wantKind: KindCreditCard, wantAccount: "4000123412341234", wantLines: 1},
		{name: "not OFX", data: "definitely not a statement", wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, err := NewParser().ParseFile(context.Background(), strings.NewReader(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, statements, 1)
			assert.Equal(t, tt.wantKind, statements[0].Kind)
			assert.Equal(t, tt.wantAccount, statements[0].AccountID)
			assert.Len(t, statements[0].Lines, tt.wantLines)
			assert.Equal(t, tt.wantLines, CountLines(statements))
		})
	}
}

func TestParseFile_Lines(t *testing.T) {
	statements, err := NewParser().ParseFile(context.Background(), strings.NewReader(checkingOFX))
	require.NoError(t, err)
	lines := statements[0].Lines
	require.Len(t, lines, 4)

	grocer := lines[0]
	assert.Equal(t, "J2406031", grocer.FITID)
	assert.Equal(t, "CORNER GROCER", grocer.Description)
	assert.True(t, grocer.Amount.Equal(decimal.RequireFromString("-64.20")), grocer.Amount.String())
	assert.True(t, time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC).Equal(grocer.Date), grocer.Date.String())

	payroll := lines[1]
	assert.Equal(t, "ACME PAYROLL JUNE", payroll.Description, "generic NAME falls back to MEMO")
	assert.True(t, payroll.Amount.Equal(decimal.RequireFromString("2500")))

	assert.Equal(t, "INT", lines[2].TrnType)
	assert.Equal(t, "FEE", lines[3].TrnType)
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{name: "payee wins", tx: ofxgo.Transaction{Name: "CHECK 1021", Payee: &ofxgo.Payee{Name: "Landlord LLC"}}, want: "Landlord LLC"},
		{name: "strip card prefix", tx: ofxgo.Transaction{Name: "CHECK CARD BOOKSHOP"}, want: "BOOKSHOP"},
		{name: "strip leading date", tx: ofxgo.Transaction{Name: "03/14 PHARMACY 12"}, want: "PHARMACY 12"},
		{name: "memo for generic name", tx: ofxgo.Transaction{Name: "DEBIT", Memo: "WATER UTILITY"}, want: "WATER UTILITY"},
		{name: "trim", tx: ofxgo.Transaction{Name: "  TRAIN PASS  "}, want: "TRAIN PASS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDescription(tt.tx))
		})
	}
}

func TestBookings(t *testing.T) {
	statements, err := NewParser().ParseFile(context.Background(), strings.NewReader(checkingOFX))
	require.NoError(t, err)

	inputs := Bookings(statements, model.DivisionOffice)
	require.Len(t, inputs, 4)

	tests := []struct {
		typ      model.TransactionType
		amount   string
		category string
	}{
		{typ: model.TypeExpense, amount: "64.2", category: CategoryUncategorized},
		{typ: model.TypeIncome, amount: "2500", category: CategoryUncategorized},
		{typ: model.TypeIncome, amount: "1.37", category: CategoryInterest},
		{typ: model.TypeExpense, amount: "5", category: CategoryFee},
	}
	for i, want := range tests {
		got := inputs[i]
		assert.Equal(t, want.typ, got.Type, "line %d", i+1)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString(want.amount)), "line %d amount %s", i+1, got.Amount)
		assert.Equal(t, want.category, got.Category, "line %d", i+1)
		assert.Equal(t, model.DivisionOffice, got.Division)
		require.NotNil(t, got.Date)
		assert.NoError(t, got.Validate(), "line %d", i+1)
	}
}

func TestPreprocessOFX(t *testing.T) {
	in := "\n\n  OFXHEADER:100\n<SEVERITY>Warn</SEVERITY>\n<BANKTRANLIST\n"
	out := NewParser().preprocessOFX(in)
	assert.True(t, strings.HasPrefix(out, "OFXHEADER:100"))
	assert.Contains(t, out, "<SEVERITY>WARN</SEVERITY>")
	assert.Contains(t, out, "<BANKTRANLIST>")
}
