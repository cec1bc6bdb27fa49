package domain

import "time"

// TransactionType tags the business nature of a transaction.
type TransactionType string

const (
	JournalEntry TransactionType = "JOURNAL_ENTRY"
	Payment      TransactionType = "PAYMENT"
	Expense      TransactionType = "EXPENSE"
	Transfer     TransactionType = "TRANSFER"
	Adjustment   TransactionType = "ADJUSTMENT"
)

// Side indicates whether a line is a Debit or a Credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// Opposite returns the other side of the ledger.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// Transaction is one balanced accounting event. Financial fields are never mutated once persisted.
type Transaction struct {
	CompanyID               string            `json:"companyId"`
	TransactionID           string            `json:"transactionId"`
	TransactionNumber       string            `json:"transactionNumber"`
	Date                    time.Time         `json:"date"`
	Type                    TransactionType   `json:"type"`
	Description             *string           `json:"description,omitempty"`
	ReferenceNumber         *string           `json:"referenceNumber,omitempty"`
	CurrencyCode            string            `json:"currencyCode"`
	IdempotencyKey          string            `json:"idempotencyKey"`
	ReversalOfTransactionID *string           `json:"reversalOfTransactionId,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	CreatedBy               string            `json:"createdBy"`
	Lines                   []TransactionLine `json:"lines"`
}

// TransactionLine is one debit or credit leg of a transaction.
type TransactionLine struct {
	LineID        string  `json:"lineId"`
	TransactionID string  `json:"transactionId"`
	CompanyID     string  `json:"companyId"`
	LineNumber    int     `json:"lineNumber"`
	AccountID     string  `json:"accountId"`
	Side          Side    `json:"side"`
	AmountMinor   int64   `json:"amountMinor"`
	CurrencyCode  string  `json:"currencyCode"`
	Description   *string `json:"description,omitempty"`
}

// IsReversal reports whether the transaction offsets another one.
func (t Transaction) IsReversal() bool {
	return t.ReversalOfTransactionID != nil && *t.ReversalOfTransactionID != ""
}

// Totals sums the debit and credit legs in minor units.
func (t Transaction) Totals() (debits, credits int64) {
	for _, line := range t.Lines {
		switch line.Side {
		case Debit:
			debits += line.AmountMinor
		case Credit:
			credits += line.AmountMinor
		}
	}
	return debits, credits
}

// NetByAccount returns debit-positive net movement per account.
func NetByAccount(txns ...Transaction) map[string]int64 {
	net := make(map[string]int64)
	for _, txn := range txns {
		for _, line := range txn.Lines {
			if line.Side == Debit {
				net[line.AccountID] += line.AmountMinor
			} else {
				net[line.AccountID] -= line.AmountMinor
			}
		}
	}
	return net
}

// VoidResult is the outcome of reversing a transaction.
type VoidResult struct {
	ReversalID string       `json:"reversalId"`
	Duplicate  bool         `json:"duplicate"`
	Reversal   *Transaction `json:"reversal,omitempty"`
}

// NormalizeDate truncates t to a UTC calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"
