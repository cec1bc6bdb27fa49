package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// Cursor is the position of the last row of a page of transactions, ordered by
// (date, created_at, transaction_id) descending.
type Cursor struct {
	Date          time.Time
	CreatedAt     time.Time
	TransactionID string
}

// EncodeToken creates an opaque base64 token from a cursor.
func EncodeToken(c Cursor) string {
	tokenStr := strings.Join([]string{c.Date.Format(timeFormat), c.CreatedAt.Format(timeFormat), c.TransactionID}, "|")
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (Cursor, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}
	if parts[2] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (missing id)")
	}

	return Cursor{Date: date, CreatedAt: createdAt, TransactionID: parts[2]}, nil
}

// ClampLimit bounds a caller page size.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
