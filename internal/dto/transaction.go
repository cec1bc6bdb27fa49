package dto

import (
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/money"
)

// PostTransactionRequest is a proposed journal entry: header, lines and the acting user.
type PostTransactionRequest struct {
	Transaction TransactionInput `json:"transaction" yaml:"transaction"`
	Lines       []LineInput      `json:"lines" yaml:"lines" validate:"required,min=2,dive"`
	Actor       domain.Actor     `json:"actor" yaml:"actor"`
}

// TransactionInput carries the caller-supplied header fields.
type TransactionInput struct {
	CompanyID         string                 `json:"companyId" yaml:"companyId" validate:"required"`
	TransactionNumber string                 `json:"transactionNumber" yaml:"transactionNumber" validate:"required,max=64"`
	Date              string                 `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Type              domain.TransactionType `json:"type" yaml:"type" validate:"required,oneof=JOURNAL_ENTRY PAYMENT EXPENSE TRANSFER ADJUSTMENT"`
	Description       *string                `json:"description,omitempty" yaml:"description,omitempty"`
	ReferenceNumber   *string                `json:"referenceNumber,omitempty" yaml:"referenceNumber,omitempty"`
	CurrencyCode      *string                `json:"currency,omitempty" yaml:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	IdempotencyKey    *string                `json:"idempotencyKey,omitempty" yaml:"idempotencyKey,omitempty" validate:"omitempty,max=128"`
}

// LineInput is one proposed leg. Exactly one of Debit and Credit must be a non-zero amount.
type LineInput struct {
	AccountID   string  `json:"accountId" yaml:"accountId" validate:"required"`
	Debit       string  `json:"debit,omitempty" yaml:"debit,omitempty"`
	Credit      string  `json:"credit,omitempty" yaml:"credit,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// VoidTransactionRequest asks for a reversal of a posted transaction.
type VoidTransactionRequest struct {
	CompanyID     string       `json:"companyId" yaml:"companyId" validate:"required"`
	TransactionID string       `json:"transactionId" yaml:"transactionId" validate:"required"`
	Reason        string       `json:"reason" yaml:"reason" validate:"required,max=500"`
	Actor         domain.Actor `json:"actor" yaml:"actor"`
}

// ListTransactionsParams defines parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `json:"limit"`
	NextToken *string `json:"nextToken,omitempty"`
}

// ListTransactionsResponse is one page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// LineResponse renders a line with its amount as a decimal string.
type LineResponse struct {
	LineID      string      `json:"lineId"`
	AccountID   string      `json:"accountId"`
	Side        domain.Side `json:"side"`
	Amount      string      `json:"amount"`
	Currency    string      `json:"currency"`
	Description *string     `json:"description,omitempty"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID           string                 `json:"transactionId"`
	CompanyID               string                 `json:"companyId"`
	TransactionNumber       string                 `json:"transactionNumber"`
	Date                    string                 `json:"date"`
	Type                    domain.TransactionType `json:"type"`
	Description             *string                `json:"description,omitempty"`
	ReferenceNumber         *string                `json:"referenceNumber,omitempty"`
	Currency                string                 `json:"currency"`
	IdempotencyKey          string                 `json:"idempotencyKey"`
	ReversalOfTransactionID *string                `json:"reversalOfTransactionId,omitempty"`
	DebitTotal              string                 `json:"debitTotal"`
	CreditTotal             string                 `json:"creditTotal"`
	CreatedBy               string                 `json:"createdBy"`
	Lines                   []LineResponse         `json:"lines"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	debits, credits := txn.Totals()
	lines := make([]LineResponse, len(txn.Lines))
	for i, l := range txn.Lines {
		lines[i] = LineResponse{
			LineID:      l.LineID,
			AccountID:   l.AccountID,
			Side:        l.Side,
			Amount:      money.FormatMinorUnits(l.AmountMinor),
			Currency:    l.CurrencyCode,
			Description: l.Description,
		}
	}
	return TransactionResponse{
		TransactionID:           txn.TransactionID,
		CompanyID:               txn.CompanyID,
		TransactionNumber:       txn.TransactionNumber,
		Date:                    txn.Date.Format(domain.DateLayout),
		Type:                    txn.Type,
		Description:             txn.Description,
		ReferenceNumber:         txn.ReferenceNumber,
		Currency:                txn.CurrencyCode,
		IdempotencyKey:          txn.IdempotencyKey,
		ReversalOfTransactionID: txn.ReversalOfTransactionID,
		DebitTotal:              money.FormatMinorUnits(debits),
		CreditTotal:             money.FormatMinorUnits(credits),
		CreatedBy:               txn.CreatedBy,
		Lines:                   lines,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
