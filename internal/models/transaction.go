package models

import "time"

// Side indicates whether a transaction line is a Debit or a Credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// Transaction is the header row of one posted entry.
type Transaction struct {
	TransactionID           string    `db:"transaction_id"`
	CompanyID               string    `db:"company_id"`
	TransactionNumber       string    `db:"transaction_number"`
	TransactionDate         time.Time `db:"transaction_date"`
	TransactionType         string    `db:"transaction_type"`
	Description             *string   `db:"description"`
	ReferenceNumber         *string   `db:"reference_number"`
	CurrencyCode            string    `db:"currency_code"`
	IdempotencyKey          string    `db:"idempotency_key"`
	ReversalOfTransactionID *string   `db:"reversal_of_transaction_id"`
	CreatedAt               time.Time `db:"created_at"`
	CreatedBy               string    `db:"created_by"`
}

// TransactionLine is one debit or credit leg. Amount is in minor units and always positive.
type TransactionLine struct {
	LineID        string  `db:"line_id"`
	TransactionID string  `db:"transaction_id"`
	CompanyID     string  `db:"company_id"`
	LineNumber    int     `db:"line_number"`
	AccountID     string  `db:"account_id"`
	Side          Side    `db:"side"`
	AmountMinor   int64   `db:"amount_minor"`
	CurrencyCode  string  `db:"currency_code"`
	Description   *string `db:"description"`
}
