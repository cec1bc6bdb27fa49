package services

import (
	"context"
	"sort"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
)

// writeTransaction is the single write path shared by posting and reversal. It must run
// inside an atomic unit whose period gate already passed. inserted is false when the same
// derived transaction was already stored, which is success.
func writeTransaction(ctx context.Context, tx portsrepo.LedgerTx, txn domain.Transaction) (inserted bool, err error) {
	inserted, err = tx.InsertTransaction(ctx, txn)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindPersistence, err, "failed to insert transaction "+txn.TransactionID)
	}
	if inserted {
		if err := tx.InsertLines(ctx, txn.Lines); err != nil {
			return false, apperrors.Wrap(apperrors.KindPersistence, err, "failed to insert lines for transaction "+txn.TransactionID)
		}
		return true, nil
	}

	stored, err := tx.FindLineIDs(ctx, txn.TransactionID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load stored lines for transaction "+txn.TransactionID)
	}
	if len(stored) == 0 {
		return false, apperrors.Newf(apperrors.KindConflict, "transaction number %q is already used by a different transaction", txn.TransactionNumber).
			WithDetail("transactionNumber", txn.TransactionNumber)
	}
	if !sameIDs(stored, lineIDs(txn.Lines)) {
		return false, apperrors.Newf(apperrors.KindConflict, "idempotency key %q was already used for different content", txn.IdempotencyKey).
			WithDetail("transactionId", txn.TransactionID)
	}
	return false, nil
}

func lineIDs(lines []domain.TransactionLine) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.LineID
	}
	return ids
}

// sameIDs compares two id lists as sets; line order in the request does not matter.
func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
