package mapping

import (
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
)

// ToModelTransaction converts a domain Transaction to its header row
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:           d.TransactionID,
		CompanyID:               d.CompanyID,
		TransactionNumber:       d.TransactionNumber,
		TransactionDate:         domain.NormalizeDate(d.Date),
		TransactionType:         string(d.Type),
		Description:             d.Description,
		ReferenceNumber:         d.ReferenceNumber,
		CurrencyCode:            d.CurrencyCode,
		IdempotencyKey:          d.IdempotencyKey,
		ReversalOfTransactionID: d.ReversalOfTransactionID,
		CreatedAt:               d.CreatedAt.UTC(),
		CreatedBy:               d.CreatedBy,
	}
}

// ToDomainTransaction converts a header row and its lines to a domain Transaction
func ToDomainTransaction(m models.Transaction, lines []models.TransactionLine) domain.Transaction {
	return domain.Transaction{
		CompanyID:               m.CompanyID,
		TransactionID:           m.TransactionID,
		TransactionNumber:       m.TransactionNumber,
		Date:                    domain.NormalizeDate(m.TransactionDate),
		Type:                    domain.TransactionType(m.TransactionType),
		Description:             m.Description,
		ReferenceNumber:         m.ReferenceNumber,
		CurrencyCode:            m.CurrencyCode,
		IdempotencyKey:          m.IdempotencyKey,
		ReversalOfTransactionID: m.ReversalOfTransactionID,
		CreatedAt:               m.CreatedAt.UTC(),
		CreatedBy:               m.CreatedBy,
		Lines:                   ToDomainLineSlice(lines),
	}
}

// ToModelLine converts a domain TransactionLine to a model TransactionLine
func ToModelLine(d domain.TransactionLine) models.TransactionLine {
	return models.TransactionLine{
		LineID:        d.LineID,
		TransactionID: d.TransactionID,
		CompanyID:     d.CompanyID,
		LineNumber:    d.LineNumber,
		AccountID:     d.AccountID,
		Side:          models.Side(d.Side),
		AmountMinor:   d.AmountMinor,
		CurrencyCode:  d.CurrencyCode,
		Description:   d.Description,
	}
}

// ToDomainLine converts a model TransactionLine to a domain TransactionLine
func ToDomainLine(m models.TransactionLine) domain.TransactionLine {
	return domain.TransactionLine{
		LineID:        m.LineID,
		TransactionID: m.TransactionID,
		CompanyID:     m.CompanyID,
		LineNumber:    m.LineNumber,
		AccountID:     m.AccountID,
		Side:          domain.Side(m.Side),
		AmountMinor:   m.AmountMinor,
		CurrencyCode:  m.CurrencyCode,
		Description:   m.Description,
	}
}

// ToDomainLineSlice converts a slice of model lines to domain lines
func ToDomainLineSlice(ms []models.TransactionLine) []domain.TransactionLine {
	if len(ms) == 0 {
		return nil
	}
	ds := make([]domain.TransactionLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLine(m)
	}
	return ds
}
