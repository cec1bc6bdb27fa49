package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/repositories/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodsAndLockLog(t *testing.T) {
	repos := sqlite.NewRepositoryProvider(openTestDB(t))
	ctx := context.Background()
	created := time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC)

	march := domain.AccountingPeriod{PeriodID: "p-march", CompanyID: "company-1", StartDate: day(2024, 3, 1), EndDate: day(2024, 3, 31), CreatedAt: created, CreatedBy: "user-1"}
	quarter := domain.AccountingPeriod{PeriodID: "p-q1", CompanyID: "company-1", StartDate: day(2024, 1, 1), EndDate: day(2024, 3, 31), CreatedAt: created, CreatedBy: "user-1"}

	err := repos.LedgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		for _, p := range []domain.AccountingPeriod{march, quarter} {
			ok, err := tx.InsertPeriod(ctx, p)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		sameRange := march
		sameRange.PeriodID = "p-march-again"
		ok, err := tx.InsertPeriod(ctx, sameRange)
		require.NoError(t, err)
		assert.False(t, ok, "company and range are unique")
		return nil
	})
	require.NoError(t, err)

	covering, err := repos.PeriodRepo.FindPeriodsCoveringDate(ctx, "company-1", day(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, covering, 2)
	assert.Equal(t, "p-march", covering[0].PeriodID)

	covering, err = repos.PeriodRepo.FindPeriodsCoveringDate(ctx, "company-1", day(2024, 4, 1))
	require.NoError(t, err)
	assert.Empty(t, covering)

	first := domain.PeriodLock{LockID: "01B", PeriodID: "p-march", CompanyID: "company-1", Action: domain.PeriodSoftClosed, ActorID: "user-1", CorrelationID: "c-1", CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	second := domain.PeriodLock{LockID: "01A", PeriodID: "p-march", CompanyID: "company-1", Action: domain.PeriodLocked, ActorID: "user-1", Reason: "close", CorrelationID: "c-2", CreatedAt: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)}

	err = repos.LedgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		period, err := tx.LockPeriodForUpdate(ctx, "company-1", "p-march")
		require.NoError(t, err)
		assert.Equal(t, day(2024, 3, 31), period.EndDate)

		_, err = tx.LockPeriodForUpdate(ctx, "company-2", "p-march")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		require.NoError(t, tx.AppendPeriodLock(ctx, second))
		require.NoError(t, tx.AppendPeriodLock(ctx, first))

		locks, err := tx.ListPeriodLocks(ctx, "p-march")
		require.NoError(t, err)
		require.Len(t, locks, 2)
		assert.Equal(t, "01B", locks[0].LockID, "oldest first")
		assert.Equal(t, domain.PeriodLocked, domain.FoldPeriodState(locks))
		return nil
	})
	require.NoError(t, err)

	locks, err := repos.PeriodRepo.ListPeriodLocks(ctx, "company-1", "p-march")
	require.NoError(t, err)
	assert.Len(t, locks, 2)
	assert.Equal(t, "close", locks[1].Reason)

	locks, err = repos.PeriodRepo.ListPeriodLocks(ctx, "company-2", "p-march")
	require.NoError(t, err)
	assert.Empty(t, locks)

	found, err := repos.PeriodRepo.FindPeriodByID(ctx, "company-1", "p-q1")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 1), found.StartDate)
}

func TestAuditRepositoryRecordsAndLists(t *testing.T) {
	db := openTestDB(t)
	audit := sqlite.NewAuditRepository(db)
	ctx := context.Background()

	changes, err := json.Marshal(map[string]any{"reason": "UNBALANCED"})
	require.NoError(t, err)
	entries := []domain.AuditLogEntry{
		{AuditID: "a-2", CompanyID: "company-1", UserID: "user-1", Action: domain.AuditInvariantViolation, EntityType: domain.EntityTransaction, EntityID: "JE-1", Changes: changes, CreatedAt: time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)},
		{AuditID: "a-1", CompanyID: "company-1", UserID: "user-1", Action: domain.AuditTransactionPosted, EntityType: domain.EntityTransaction, EntityID: "txn-1", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		require.NoError(t, audit.Record(ctx, e))
	}

	all, err := audit.ListAuditEntries(ctx, "company-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a-1", all[0].AuditID)
	assert.JSONEq(t, `{}`, string(all[0].Changes))

	one, err := audit.ListAuditEntries(ctx, "company-1", "JE-1")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.JSONEq(t, `{"reason":"UNBALANCED"}`, string(one[0].Changes))

	_, err = db.Exec(`DELETE FROM audit_logs`)
	assert.Error(t, err)
}
