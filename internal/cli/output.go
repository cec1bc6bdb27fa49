package cli

import (
	"encoding/json"
	"io"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
)

type errorOutput struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Cause   string         `json:"cause,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteError renders err for the operator. Untyped errors come from flags, arguments
// or input files, never from the engine.
func WriteError(w io.Writer, err error) {
	out := errorOutput{
		Kind:    apperrors.KindValidation,
		Message: err.Error(),
	}
	if typed := apperrors.As(err); typed != nil {
		out.Kind = typed.Kind()
		out.Message = typed.Message()
		out.Details = typed.Details()
		if cause := typed.Unwrap(); cause != nil {
			out.Cause = cause.Error()
		}
	}
	out.Status = apperrors.HTTPStatus(out.Kind)
	_ = printJSON(w, out)
}
