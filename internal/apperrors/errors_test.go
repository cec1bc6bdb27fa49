package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestKindOf(t *testing.T) {
	err := New(KindUnbalanced, "debits do not equal credits")
	assert.Equal(t, KindUnbalanced, KindOf(err))

	wrapped := fmt.Errorf("post: %w", err)
	assert.Equal(t, KindUnbalanced, KindOf(wrapped), "kind should survive %%w wrapping")

	assert.Equal(t, KindPersistence, KindOf(errors.New("boom")), "untyped errors are persistence failures")
	assert.False(t, IsKind(nil, KindPersistence))
}

func TestKindOfCombinedWithAuditFailure(t *testing.T) {
	rejection := New(KindPeriodClosed, "period is locked")
	combined := multierr.Append(rejection, errors.New("audit sink down"))

	assert.Equal(t, KindPeriodClosed, KindOf(combined), "rejection kind must win over the audit failure")
	assert.Contains(t, combined.Error(), "audit sink down")
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindNotFound, ErrNotFound, "transaction not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "NOT_FOUND")

	assert.Nil(t, Wrap(KindPersistence, nil, "x").Unwrap())
}

func TestWithDetail(t *testing.T) {
	err := New(KindUnbalanced, "unbalanced").WithDetail("debitTotal", int64(100)).WithDetail("creditTotal", int64(90))
	assert.Equal(t, int64(100), err.Details()["debitTotal"])
	assert.Equal(t, int64(90), err.Details()["creditTotal"])
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindInvalidAmount: http.StatusBadRequest,
		KindMalformedLine: http.StatusBadRequest,
		KindUnbalanced:    http.StatusBadRequest,
		KindPeriodClosed:  http.StatusForbidden,
		KindNotFound:      http.StatusNotFound,
		KindConflict:      http.StatusConflict,
		KindPersistence:   http.StatusInternalServerError,
		KindUnconfirmed:   http.StatusInternalServerError,
		Kind("UNKNOWN"):   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), "status for %s", kind)
	}
	assert.Equal(t, http.StatusForbidden, StatusOf(New(KindPeriodClosed, "locked")))
}
