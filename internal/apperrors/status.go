package apperrors

import "net/http"

var statusByKind = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindInvalidAmount: http.StatusBadRequest,
	KindMalformedLine: http.StatusBadRequest,
	KindUnbalanced:    http.StatusBadRequest,
	KindPeriodClosed:  http.StatusForbidden,
	KindNotFound:      http.StatusNotFound,
	KindConflict:      http.StatusConflict,
	KindPersistence:   http.StatusInternalServerError,
	KindUnconfirmed:   http.StatusInternalServerError,
}

// HTTPStatus maps a kind to the transport status a route layer should answer with.
func HTTPStatus(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusOf is HTTPStatus(KindOf(err)).
func StatusOf(err error) int {
	return HTTPStatus(KindOf(err))
}
